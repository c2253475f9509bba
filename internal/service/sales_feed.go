package service

import (
	"context"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"

	"github.com/shopspring/decimal"
)

// SalesFeed supplies the authoritative "expected total since opening" of a
// session. Its figure is what gets committed as the closing amount.
type SalesFeed interface {
	GetExpectedTotal(ctx context.Context, sessionID int64) (decimal.Decimal, error)
}

// ledgerSalesFeed sums the session's own cash movements. It is used when no
// external feed is configured.
type ledgerSalesFeed struct {
	movements repository.MovementRepository
}

func NewLedgerSalesFeed(movements repository.MovementRepository) SalesFeed {
	return &ledgerSalesFeed{movements: movements}
}

func (f *ledgerSalesFeed) GetExpectedTotal(ctx context.Context, sessionID int64) (decimal.Decimal, error) {
	return f.movements.SumBySession(ctx, sessionID)
}
