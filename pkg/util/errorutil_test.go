package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	err := NewConflict("already assigned", map[string]any{"complaint_id": "c1"})
	mapped := ToDomainError(err)
	assert.Equal(t, "CONFLICT", mapped.Code)
	assert.Equal(t, http.StatusConflict, mapped.HTTPStatus)
	assert.Equal(t, "c1", mapped.Details["complaint_id"])
}

func TestToDomainErrorUnwrapsWrapped(t *testing.T) {
	err := fmt.Errorf("saving complaint: %w", NewForbidden("access denied"))
	mapped := ToDomainError(err)
	assert.Equal(t, "FORBIDDEN", mapped.Code)
	assert.Equal(t, http.StatusForbidden, mapped.HTTPStatus)
}

func TestToDomainErrorMapsNoRowsToNotFound(t *testing.T) {
	mapped := ToDomainError(fmt.Errorf("loading complaint: %w", pgx.ErrNoRows))
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorDefaultsToInternal(t *testing.T) {
	cause := errors.New("connection refused")
	mapped := ToDomainError(cause)
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
	assert.ErrorIs(t, mapped, cause)
}

func TestToDomainErrorNil(t *testing.T) {
	require.Nil(t, ToDomainError(nil))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(NewConflict("busy", nil)))
	assert.False(t, IsConflict(NewForbidden("no")))
	assert.False(t, IsConflict(errors.New("plain")))
}
