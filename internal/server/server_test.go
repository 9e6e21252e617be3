package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/fleetcore/internal/fault"
)

func TestHealthEndpoint(t *testing.T) {
	s := New(nil, nil, zerolog.Nop(), "1.2.3", "abc123", "2026-08-30")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestVersionEndpoint(t *testing.T) {
	s := New(nil, nil, zerolog.Nop(), "1.2.3", "abc123", "2026-08-30")

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"1.2.3"`)
	assert.Contains(t, rec.Body.String(), `"abc123"`)
}

func TestWriteError_MapsTaxonomyToStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fault.NotFound("zone not found"), http.StatusNotFound},
		{fault.AlreadyExists("zone already exists"), http.StatusConflict},
		{fault.Conflict(fault.ViolationUserOwnsResources, "user owns nodes"), http.StatusConflict},
		{fault.BadRequest(fault.ViolationCannotDeleteDefaultZone, "nope"), http.StatusBadRequest},
		{fault.Validation(nil, "bad field"), http.StatusBadRequest},
		{fault.PreconditionFailed(fault.ViolationEtagMismatch, "stale"), http.StatusPreconditionFailed},
		{fault.Unavailable(nil, "db down"), http.StatusServiceUnavailable},
		{errors.New("plain failure"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, "error %v", tc.err)
	}
}

func TestWriteError_IncludesViolationTag(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fault.BadRequest(fault.ViolationCannotDeleteDefaultZone, "nope"))

	assert.Contains(t, rec.Body.String(), fault.ViolationCannotDeleteDefaultZone)
}
