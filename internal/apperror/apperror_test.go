package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := Conflict("register already open").WithRegister("CAJA-01")
	wrapped := fmt.Errorf("open session: %w", err)

	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.NotErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestErrorMessageNamesRegisterAndFields(t *testing.T) {
	err := Validation("denomination mismatch",
		Field("denominations[0].quantity", "must be a non-negative integer"),
		Field("opening_amount", "must be >= 0"),
	).WithRegister("CAJA-01")

	msg := err.Error()
	assert.Contains(t, msg, "denomination mismatch")
	assert.Contains(t, msg, "CAJA-01")
	assert.Contains(t, msg, "denominations[0].quantity must be a non-negative integer")
	assert.Contains(t, msg, "opening_amount must be >= 0")
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Dependency("sales feed unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrDependency)
	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "dependency_error", e.Kind.String())
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
