package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{name: "not found", err: fmt.Errorf("user u-1: %w", ErrNotFound), status: http.StatusNotFound, body: `{"error":"Not found"}`},
		{name: "duplicate", err: ErrDuplicate, status: http.StatusConflict, body: `{"error":"duplicate entry"}`},
		{name: "validation", err: ErrValidation, status: http.StatusBadRequest, body: `{"error":"validation failed"}`},
		{name: "forbidden", err: ErrForbidden, status: http.StatusForbidden, body: `{"error":"Forbidden"}`},
		{name: "unauthorized", err: ErrUnauthorized, status: http.StatusUnauthorized, body: `{"error":"Unauthorized"}`},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, body: `{"error":"Internal error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
	}
	err := validator.New().Struct(input{Email: "nope"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	ValidationError(rec, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Validation failed","fields":{"Email":"email"}}`, rec.Body.String())
}
