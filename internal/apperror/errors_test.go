package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"conflict", Conflict("Not pending"), KindConflict},
		{"wrapped", fmt.Errorf("approve: %w", NotFound("Request not found")), KindNotFound},
		{"plain", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Conflict("Not pending"))
	assert.True(t, errors.Is(err, Conflict("")))
	assert.False(t, errors.Is(err, NotFound("")))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("pq: connection reset")
	err := From(cause)

	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, "Internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestInsufficientStockCarriesShortages(t *testing.T) {
	err := InsufficientStock([]Shortage{{ItemID: "a", Available: 0, Requested: 1}})
	assert.Equal(t, KindConflict, err.Kind)
	assert.Len(t, err.Shortages, 1)
}
