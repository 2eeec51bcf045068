package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhill/fieldtrack/internal/domain"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func invokeJWT(t *testing.T, authorization string) (domain.Caller, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var caller domain.Caller
	handler := JWTAuth(testSecret)(func(c echo.Context) error {
		got, ok := GetCaller(c)
		require.True(t, ok)
		caller = got
		return nil
	})
	return caller, handler(c)
}

func TestJWTAuth_AdminToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  int64(42),
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	caller, err := invokeJWT(t, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), caller.ID)
	assert.True(t, caller.IsAdmin())
}

func TestJWTAuth_RejectsMissingHeader(t *testing.T) {
	_, err := invokeJWT(t, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTAuth_RejectsUnknownRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  int64(42),
		"role": "superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	_, err := invokeJWT(t, "Bearer "+token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTAuth_RejectsExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  int64(42),
		"role": "staff",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	_, err := invokeJWT(t, "Bearer "+token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestMapError_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{"missing start time", domain.ErrMissingStartTime, http.StatusConflict, "missing_start_time"},
		{"invalid time range", domain.ErrInvalidTimeRange, http.StatusUnprocessableEntity, "invalid_time_range"},
		{"validation", &domain.ValidationError{Field: "lat", Message: "bad"}, http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}
