package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("wrapped app error keeps its kind", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", NotFound("Order not found"))
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.True(t, Is(err, KindNotFound))
		assert.Equal(t, "Order not found", MessageOf(err))
	})

	t.Run("plain error is internal", func(t *testing.T) {
		err := errors.New("socket closed")
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Equal(t, "Internal server error", MessageOf(err))
	})

	t.Run("internal hides cause from message", func(t *testing.T) {
		err := Internal(errors.New("mongo: timeout"))
		assert.Equal(t, "Internal server error", MessageOf(err))
		assert.Contains(t, err.Error(), "mongo: timeout")
	})
}

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:    http.StatusBadRequest,
		KindConflict:      http.StatusBadRequest,
		KindUnauthorized:  http.StatusUnauthorized,
		KindForbidden:     http.StatusForbidden,
		KindNotFound:      http.StatusNotFound,
		KindStateConflict: http.StatusConflict,
		KindInternal:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, Status(kind))
	}
}
