package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"gymdesk/pkg/requestcontext"
	"gymdesk/pkg/testutil"
)

type validatorFunc func(string) (*JWTClaims, error)

func (f validatorFunc) ValidateToken(token string) (*JWTClaims, error) { return f(token) }

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func echoPrincipal() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staff := requestcontext.Staff(r.Context())
		w.Header().Set("X-Staff", staff.ID+"/"+staff.Role)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth(t *testing.T) {
	validator := validatorFunc(func(token string) (*JWTClaims, error) {
		if token == "good" {
			return &JWTClaims{StaffID: "staff-1", Role: "staff"}, nil
		}
		return nil, errors.New("signature is invalid")
	})
	handler := RequireAuth(validator, logger)(echoPrincipal())

	t.Run("valid token sets principal", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/", "Authorization", "Bearer good"))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "staff-1/staff", rr.Header().Get("X-Staff"))
	})

	t.Run("missing header", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/", "Authorization", "Basic good"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("rejected token", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/", "Authorization", "Bearer forged"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		assert.Equal(t, "Invalid or expired token", testutil.ErrorBody(t, rr)["error_description"])
	})
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(logger, "staff", "admin")(echoPrincipal())

	rr := testutil.DoRequest(handler, testutil.WithStaff(testutil.NewRequest(t, http.MethodGet, "/"), "admin-1", "admin"))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(handler, testutil.WithStaff(testutil.NewRequest(t, http.MethodGet, "/"), "kiosk-1", "kiosk"))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	rr = testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
}
