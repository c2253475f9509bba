package service_test

import (
	"context"
	"testing"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apperror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedHistory leaves CAJA-01 with one closed and one open session, CAJA-02
// with a single closed session and CAJA-03 untouched.
func seedHistory(t *testing.T, f *fixture) (closed1, open1, closed2 int64) {
	t.Helper()
	ctx := context.Background()
	f.register(t, "CAJA-01", cashier.OperatorID)
	f.register(t, "CAJA-02", cashier.OperatorID)
	createRegisters(t, f, "CAJA-03")

	closeWith := func(id int64, amount string) {
		f.feed.set(amount)
		_, err := f.sessions.Close(ctx, cashier, id, dto.CloseSessionRequest{
			Payments: []dto.TenderLine{tender("CARD", amount)},
		})
		require.NoError(t, err)
	}

	s := f.open(t, "CAJA-01", "0")
	closeWith(s.ID, "50")
	closed1 = s.ID

	s = f.open(t, "CAJA-02", "0")
	closeWith(s.ID, "70")
	closed2 = s.ID

	open1 = f.open(t, "CAJA-01", "200", bill("100", 2)).ID
	return closed1, open1, closed2
}

func TestHistoryService_ListRecent(t *testing.T) {
	f := newFixture(t)
	closed1, open1, closed2 := seedHistory(t, f)
	ctx := context.Background()

	all, err := f.history.ListRecent(ctx, dto.SessionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	require.Len(t, all.Data, 3)
	assert.Equal(t, []int64{open1, closed2, closed1}, []int64{all.Data[0].ID, all.Data[1].ID, all.Data[2].ID})
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 20, all.Limit)

	page, err := f.history.ListRecent(ctx, dto.SessionFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, closed1, page.Data[0].ID)
	assert.Equal(t, 2, page.TotalPages)

	byRegister, err := f.history.ListRecent(ctx, dto.SessionFilter{RegisterCode: "caja-01", Status: "CLOSED"})
	require.NoError(t, err)
	require.Len(t, byRegister.Data, 1)
	assert.Equal(t, closed1, byRegister.Data[0].ID)

	none, err := f.history.ListRecent(ctx, dto.SessionFilter{OperatorID: 999})
	require.NoError(t, err)
	assert.Empty(t, none.Data)
	assert.Equal(t, 0, none.TotalPages)
}

func TestHistoryService_RegisterOverview(t *testing.T) {
	f := newFixture(t)
	closed1, open1, closed2 := seedHistory(t, f)

	items, err := f.history.RegisterOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "CAJA-01", items[0].Register.Code)
	require.NotNil(t, items[0].ActiveSession)
	assert.Equal(t, open1, items[0].ActiveSession.ID)
	assert.Equal(t, "Ana Cashier", items[0].ActiveSession.OperatorName)
	require.NotNil(t, items[0].LastClosed)
	assert.Equal(t, closed1, items[0].LastClosed.ID)
	assert.Equal(t, "50.00", items[0].LastClosed.ClosingAmount.StringFixed(2))

	assert.Nil(t, items[1].ActiveSession)
	require.NotNil(t, items[1].LastClosed)
	assert.Equal(t, closed2, items[1].LastClosed.ID)

	assert.Nil(t, items[2].ActiveSession)
	assert.Nil(t, items[2].LastClosed)
}

func TestHistoryService_SessionReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "CAJA-01", cashier.OperatorID)
	sess := f.open(t, "CAJA-01", "0")

	for _, m := range []dto.MovementRequest{
		{Kind: "SALE", Method: "CASH", Amount: d("100"), Description: "ticket 1"},
		{Kind: "SALE", Method: "CARD", Amount: d("40.50"), Description: "ticket 2"},
		{Kind: "REFUND", Method: "CASH", Amount: d("10"), Description: "ticket 1 return"},
	} {
		_, err := f.sessions.RecordMovement(ctx, cashier, sess.ID, m)
		require.NoError(t, err)
	}

	rep, err := f.history.SessionReport(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Cashier", rep.OperatorName)
	assert.Equal(t, "Front CAJA-01", rep.RegisterName)
	assert.Equal(t, int64(1), rep.WarehouseID)
	assert.Equal(t, 3, rep.MovementCount)
	assert.Equal(t, "130.50", rep.LedgerTotal.StringFixed(2))
	assert.Equal(t, "90.00", rep.TotalsByMethod["CASH"].StringFixed(2))
	assert.Equal(t, "40.50", rep.TotalsByMethod["CARD"].StringFixed(2))

	_, err = f.history.SessionReport(ctx, sess.ID+100)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestHistoryService_FallbackOperatorName(t *testing.T) {
	f := newFixture(t)
	f.register(t, "CAJA-01", supervisor.OperatorID)
	_, err := f.sessions.Open(context.Background(), supervisor, dto.OpenSessionRequest{CashRegisterCode: "CAJA-01"})
	require.NoError(t, err)

	items, err := f.history.RegisterOverview(context.Background())
	require.NoError(t, err)
	require.NotNil(t, items[0].ActiveSession)
	assert.Equal(t, "operator #90", items[0].ActiveSession.OperatorName)
}
