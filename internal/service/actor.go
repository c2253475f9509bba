package service

import (
	"context"
	"fmt"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/model"
)

// Roles carried in the bearer token.
const (
	RoleCashier    = "cashier"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	OperatorID int64
	Role       string
}

// CanOverride reports whether the actor may act on registers it is not
// assigned to, or on behalf of another operator.
func (a Actor) CanOverride() bool {
	return a.Role == RoleSupervisor || a.Role == RoleAdmin
}

// Clock is injected so tests can pin opening and closing timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// OperatorDirectory resolves an operator id to a display identity. The store
// only ever keeps the numeric id.
type OperatorDirectory interface {
	DisplayName(ctx context.Context, operatorID int64) string
}

type fallbackDirectory struct{}

func (fallbackDirectory) DisplayName(_ context.Context, operatorID int64) string {
	return FallbackDisplayName(operatorID)
}

// FallbackDisplayName is used whenever the directory cannot resolve an operator.
func FallbackDisplayName(operatorID int64) string {
	return fmt.Sprintf("operator #%d", operatorID)
}

// SessionNotifier receives post-commit session events. Calls happen after the
// store write succeeded; implementations log their own failures.
type SessionNotifier interface {
	SessionOpened(ctx context.Context, s *model.CashRegisterSession)
	SessionClosed(ctx context.Context, s *model.CashRegisterSession)
	SessionCancelled(ctx context.Context, s *model.CashRegisterSession)
}

type noopNotifier struct{}

func (noopNotifier) SessionOpened(context.Context, *model.CashRegisterSession)    {}
func (noopNotifier) SessionClosed(context.Context, *model.CashRegisterSession)    {}
func (noopNotifier) SessionCancelled(context.Context, *model.CashRegisterSession) {}
