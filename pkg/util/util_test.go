package util

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *HTTPError      `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestReturnHTTPContent(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	ReturnHTTPContent(rec, req, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestReturnHTTPContentNull(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	ReturnHTTPContent(rec, req, http.StatusOK, nil)

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))
}

func TestReturnHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
		wantField  string
	}{
		{
			name:       "validation",
			err:        hferrors.NewRequiredError("phone"),
			wantStatus: http.StatusBadRequest,
			wantCode:   hferrors.CodeValidation,
			wantMsg:    "phone is required",
			wantField:  "phone",
		},
		{
			name:       "wrapped not found",
			err:        errors.Wrap(hferrors.NewNotFound(hferrors.CodeUserNotFound, "User not found", nil), "looking up user"),
			wantStatus: http.StatusNotFound,
			wantCode:   hferrors.CodeUserNotFound,
			wantMsg:    "User not found",
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   hferrors.CodeInternal,
			wantMsg:    "Unexpected error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/users", nil)

			ReturnHTTPError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantMsg, env.Error.Message)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, env.Error.Details["field"])
			}
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}

func TestOptionalString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *string
	}{
		{name: "string", raw: `"math"`, want: StringPtr("math")},
		{name: "empty string", raw: `""`, want: StringPtr("")},
		{name: "null", raw: `null`},
		{name: "absent", raw: ``},
		{name: "number", raw: `12`},
		{name: "object", raw: `{"key":"math"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OptionalString(json.RawMessage(tt.raw)))
		})
	}
}
