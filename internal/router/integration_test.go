//go:build integration

// Runs the HTTP surface against real Postgres and Redis.
// Run with: go test -tags integration ./internal/router/... -v
package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/config"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/middleware"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/router"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

type liveEnv struct {
	server  *httptest.Server
	db      *gorm.DB
	events  chan infra.SessionReportEvent
	admin   string
	cashier string
}

func setupLiveEnv(t *testing.T) *liveEnv {
	t.Helper()
	ctx := context.Background()
	gin.SetMode(gin.TestMode)

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("cashdesk_test"),
		tcPostgres.WithUsername("cashdesk"),
		tcPostgres.WithPassword("cashdesk"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)

	// Report renderer stand-in.
	events := make(chan infra.SessionReportEvent, 16)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev infra.SessionReportEvent
		if json.NewDecoder(r.Body).Decode(&ev) == nil {
			events <- ev
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(hook.Close)

	poolCtx, cancel := context.WithCancel(ctx)
	pool := worker.NewPool(rdb)
	pool.Register(worker.QueueSessionReport, worker.NewReportWorker(infra.NewReportHookClient(hook.URL)))
	pool.Start(poolCtx, 2)
	t.Cleanup(func() { cancel(); pool.Wait() })

	lim, err := middleware.NewLimiter("10000-M", rdb)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:              "test",
		JWTSecret:        secret,
		LocalCurrency:    "ARS",
		SalesFeedTimeout: 2 * time.Second,
		RateLimit:        "10000-M",
	}
	engine := router.New(cfg, router.Deps{
		DB:       db,
		Redis:    rdb,
		Notifier: worker.NewSessionEvents(worker.NewDispatcher(rdb), nil, decimal.Zero),
		Limiter:  lim,
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	env := &liveEnv{server: srv, db: db, events: events}
	env.admin, err = middleware.IssueToken(secret, 1, "admin", "admin", time.Hour)
	require.NoError(t, err)
	env.cashier, err = middleware.IssueToken(secret, 7, "ana", "cashier", time.Hour)
	require.NoError(t, err)
	return env
}

func (e *liveEnv) send(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestLive_SingleOpenUnderConcurrency(t *testing.T) {
	env := setupLiveEnv(t)

	code, _ := env.send(t, http.MethodPost, "/v1/registers", env.admin, map[string]any{"code": "CAJA-01", "name": "Front", "warehouse_id": 1})
	require.Equal(t, http.StatusCreated, code)
	code, _ = env.send(t, http.MethodPost, "/v1/assignments", env.admin, map[string]any{"operator_id": 7, "cash_register_code": "CAJA-01", "is_default": true})
	require.Equal(t, http.StatusCreated, code)

	const n = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := env.send(t, http.MethodPost, "/v1/sessions", env.cashier, map[string]any{})
			mu.Lock()
			statuses[status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, statuses[http.StatusCreated])
	assert.Equal(t, n-1, statuses[http.StatusConflict])

	var open int64
	require.NoError(t, env.db.Table("cash_register_sessions").
		Where("cash_register_code = ? AND status = ?", "CAJA-01", "OPEN").Count(&open).Error)
	assert.EqualValues(t, 1, open)
}

func TestLive_LedgerCloseDeliversReport(t *testing.T) {
	env := setupLiveEnv(t)

	env.send(t, http.MethodPost, "/v1/registers", env.admin, map[string]any{"code": "CAJA-02", "name": "Back", "warehouse_id": 2})
	env.send(t, http.MethodPost, "/v1/assignments", env.admin, map[string]any{"operator_id": 7, "cash_register_code": "CAJA-02", "is_default": true})

	status, sess := env.send(t, http.MethodPost, "/v1/sessions", env.cashier, map[string]any{"cash_register_code": "CAJA-02"})
	require.Equal(t, http.StatusCreated, status)
	path := "/v1/sessions/" + itoa(int64(sess["id"].(float64)))

	status, _ = env.send(t, http.MethodPost, path+"/movements", env.cashier, map[string]any{
		"kind": "SALE", "method": "CARD", "amount": "40.50", "description": "ticket 1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, out := env.send(t, http.MethodPost, path+"/close", env.cashier, map[string]any{
		"payments": []map[string]any{{"method": "CARD", "reported_amount": "40.50"}},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "closed", out["outcome"])

	// A fresh session may open once the first one is closed.
	status, _ = env.send(t, http.MethodPost, "/v1/sessions", env.cashier, map[string]any{"cash_register_code": "CAJA-02"})
	assert.Equal(t, http.StatusCreated, status)

	seen := map[string]bool{}
	deadline := time.After(15 * time.Second)
	for !seen["opened"] || !seen["closed"] {
		select {
		case ev := <-env.events:
			assert.Equal(t, "CAJA-02", ev.RegisterCode)
			seen[ev.Event] = true
		case <-deadline:
			t.Fatalf("report events not delivered, got %v", seen)
		}
	}
}

func TestLive_ConcurrentDefaultSwitches(t *testing.T) {
	env := setupLiveEnv(t)

	codes := []string{"CAJA-10", "CAJA-11", "CAJA-12"}
	for _, c := range codes {
		status, _ := env.send(t, http.MethodPost, "/v1/registers", env.admin, map[string]any{"code": c, "name": c, "warehouse_id": 1})
		require.Equal(t, http.StatusCreated, status)
		status, _ = env.send(t, http.MethodPost, "/v1/assignments", env.admin, map[string]any{"operator_id": 7, "cash_register_code": c})
		require.Equal(t, http.StatusCreated, status)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			status, _ := env.send(t, http.MethodPut, "/v1/assignments/default", env.admin,
				map[string]any{"operator_id": 7, "cash_register_code": code})
			mu.Lock()
			statuses[status]++
			mu.Unlock()
		}(codes[i%len(codes)])
	}
	wg.Wait()

	assert.Zero(t, statuses[http.StatusInternalServerError])
	assert.Equal(t, 12, statuses[http.StatusOK]+statuses[http.StatusConflict])

	var defaults int64
	require.NoError(t, env.db.Table("cash_register_assignments").
		Where("operator_id = ? AND is_default", 7).Count(&defaults).Error)
	assert.EqualValues(t, 1, defaults)
}
