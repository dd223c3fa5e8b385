package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("loading order: %w", NotFound("order %d not found", 7))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, http.StatusNotFound, KindOf(err).HTTPStatus())
}

func TestInsufficientStockIsBusinessRule(t *testing.T) {
	err := InsufficientStock("Chair", 2, 5)

	assert.True(t, errors.Is(err, ErrBusinessRule))
	assert.Equal(t, http.StatusBadRequest, KindOf(err).HTTPStatus())
	assert.Contains(t, err.Error(), "Available: 2, requested: 5")
}

func TestUnknownErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
}
