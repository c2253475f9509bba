package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/money"

	"github.com/shopspring/decimal"
)

// DenominationCheck is the structured result of validating a physical count.
// It never represents a commit; callers decide what to do with the violations.
type DenominationCheck struct {
	Sum        decimal.Decimal
	Violations []apperror.FieldViolation
}

func (c DenominationCheck) Valid() bool { return len(c.Violations) == 0 }

// ValidateDenominationSet checks that lines use exactly expectedCurrency, have
// known kinds, non-negative unit values and non-negative integer quantities,
// and add up to targetAmount within money.Epsilon.
func ValidateDenominationSet(lines []model.DenominationLine, targetAmount decimal.Decimal, expectedCurrency string) DenominationCheck {
	return validateDenominations("denominations", lines, targetAmount, expectedCurrency)
}

func validateDenominations(field string, lines []model.DenominationLine, target decimal.Decimal, currency string) DenominationCheck {
	if len(lines) == 0 {
		if money.IsZero(target) {
			return DenominationCheck{Sum: decimal.Zero}
		}
		return DenominationCheck{
			Sum: decimal.Zero,
			Violations: []apperror.FieldViolation{
				apperror.Field(field, "at least one line is required for %s", target.StringFixed(2)),
			},
		}
	}

	check := checkDenominationLines(field, lines, currency)
	if !money.Equal(check.Sum, target) {
		check.Violations = append(check.Violations,
			apperror.Field(field, "sum %s does not match %s", money.Round2(check.Sum).StringFixed(2), target.StringFixed(2)))
	}
	return check
}

// checkDenominationLines validates every line and the currency set, without
// comparing against a target. Closing uses it on its own because a cash
// mismatch there is corrected, not rejected.
func checkDenominationLines(field string, lines []model.DenominationLine, currency string) DenominationCheck {
	var (
		sum        = decimal.Zero
		violations []apperror.FieldViolation
		currencies = map[string]struct{}{}
	)
	for i, l := range lines {
		path := fmt.Sprintf("%s[%d]", field, i)
		code := strings.TrimSpace(l.CurrencyCode)
		currencies[code] = struct{}{}

		switch {
		case !money.ValidCurrencyCode(code):
			violations = append(violations, apperror.Field(path+".currency_code", "must be a 3-letter uppercase code"))
		case code != currency:
			violations = append(violations, apperror.Field(path+".currency_code", "must be %s", currency))
		}
		if !l.Kind.Valid() {
			violations = append(violations, apperror.Field(path+".kind", "must be one of COIN, BILL, OTHER"))
		}
		if l.UnitValue.IsNegative() {
			violations = append(violations, apperror.Field(path+".unit_value", "must be >= 0"))
		}
		if l.Quantity.IsNegative() || !l.Quantity.IsInteger() {
			violations = append(violations, apperror.Field(path+".quantity", "must be a non-negative integer"))
		}
		sum = sum.Add(l.LineTotal())
	}
	if len(currencies) > 1 {
		codes := make([]string, 0, len(currencies))
		for c := range currencies {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		violations = append(violations, apperror.Field(field, "mixes currencies %s", strings.Join(codes, ", ")))
	}
	return DenominationCheck{Sum: sum, Violations: violations}
}
