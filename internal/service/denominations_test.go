package service_test

import (
	"testing"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(kind model.DenominationKind, value string, qty string) model.DenominationLine {
	return model.DenominationLine{CurrencyCode: "ARS", Kind: kind, UnitValue: d(value), Quantity: d(qty)}
}

func TestValidateDenominationSet_RoundTrip(t *testing.T) {
	sets := [][]model.DenominationLine{
		{line(model.DenominationBill, "100", "2")},
		{line(model.DenominationBill, "1000", "3"), line(model.DenominationCoin, "0.25", "7"), line(model.DenominationCoin, "0.05", "1")},
		{line(model.DenominationOther, "12.34", "5"), line(model.DenominationBill, "0", "9")},
		{line(model.DenominationCoin, "0.01", "0")},
	}
	for _, lines := range sets {
		sum := decimal.Zero
		for _, l := range lines {
			sum = sum.Add(l.LineTotal())
		}

		check := service.ValidateDenominationSet(lines, sum, "ARS")
		assert.True(t, check.Valid(), "%v", check.Violations)
		assert.True(t, check.Sum.Equal(sum))

		assert.True(t, service.ValidateDenominationSet(lines, sum.Add(d("0.004")), "ARS").Valid(), "within epsilon")
		assert.False(t, service.ValidateDenominationSet(lines, sum.Add(d("0.006")), "ARS").Valid())
		assert.False(t, service.ValidateDenominationSet(lines, sum.Sub(d("0.01")), "ARS").Valid())
	}
}

func TestValidateDenominationSet_Scenario(t *testing.T) {
	ok := service.ValidateDenominationSet([]model.DenominationLine{line(model.DenominationBill, "100", "2")}, d("200.00"), "ARS")
	assert.True(t, ok.Valid())

	bad := service.ValidateDenominationSet([]model.DenominationLine{line(model.DenominationBill, "100", "1")}, d("200.00"), "ARS")
	require.Len(t, bad.Violations, 1)
	assert.Equal(t, "denominations", bad.Violations[0].Field)
	assert.Contains(t, bad.Violations[0].Message, "100.00")
}

func TestValidateDenominationSet_LineViolationsNamePath(t *testing.T) {
	lines := []model.DenominationLine{
		line(model.DenominationBill, "100", "1"),
		{CurrencyCode: "ARS", Kind: "CHEQUE", UnitValue: d("5"), Quantity: d("1")},
		line(model.DenominationCoin, "1", "1.5"),
		line(model.DenominationCoin, "-1", "1"),
		line(model.DenominationCoin, "1", "-2"),
	}
	check := service.ValidateDenominationSet(lines, d("100"), "ARS")

	fields := make([]string, 0, len(check.Violations))
	for _, v := range check.Violations {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "denominations[1].kind")
	assert.Contains(t, fields, "denominations[2].quantity")
	assert.Contains(t, fields, "denominations[3].unit_value")
	assert.Contains(t, fields, "denominations[4].quantity")
}

func TestValidateDenominationSet_Currency(t *testing.T) {
	usd := model.DenominationLine{CurrencyCode: "USD", Kind: model.DenominationBill, UnitValue: d("10"), Quantity: d("1")}
	ars := line(model.DenominationBill, "10", "1")

	check := service.ValidateDenominationSet([]model.DenominationLine{usd}, d("10"), "ARS")
	require.False(t, check.Valid())
	assert.Equal(t, "denominations[0].currency_code", check.Violations[0].Field)

	mixed := service.ValidateDenominationSet([]model.DenominationLine{ars, usd}, d("20"), "ARS")
	require.False(t, mixed.Valid())
	assert.Equal(t, "denominations", mixed.Violations[len(mixed.Violations)-1].Field)
	assert.Contains(t, mixed.Violations[len(mixed.Violations)-1].Message, "ARS, USD")

	lower := model.DenominationLine{CurrencyCode: "ars", Kind: model.DenominationBill, UnitValue: d("10"), Quantity: d("1")}
	assert.False(t, service.ValidateDenominationSet([]model.DenominationLine{lower}, d("10"), "ARS").Valid())
}

func TestValidateDenominationSet_Empty(t *testing.T) {
	assert.True(t, service.ValidateDenominationSet(nil, decimal.Zero, "ARS").Valid())

	check := service.ValidateDenominationSet(nil, d("1"), "ARS")
	require.Len(t, check.Violations, 1)
	assert.Equal(t, "denominations", check.Violations[0].Field)
}

func TestReconciliationService_ValidateDenominationSetNormalizesRequest(t *testing.T) {
	f := newFixture(t)

	lines := []dto.DenominationLine{
		{CurrencyCode: " ars ", Kind: "bill", UnitValue: d("100"), Quantity: d("2")},
		{CurrencyCode: "Ars", Kind: " coin", UnitValue: d("0.50"), Quantity: d("3")},
	}
	check := f.recon.ValidateDenominationSet(lines, d("201.50"), " ars")
	assert.True(t, check.Valid(), "%v", check.Violations)
	assert.True(t, check.Sum.Equal(d("201.50")))

	local := f.recon.ValidateDenominationSet(lines, d("201.50"), "")
	assert.True(t, local.Valid(), "empty currency falls back to local")

	usd := f.recon.ValidateDenominationSet(lines, d("201.50"), "usd")
	assert.False(t, usd.Valid())
}
