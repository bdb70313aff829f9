package actors

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

func protectedEndpoint(t *testing.T, middlewares ...func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		require.NotNil(t, identity)
		w.WriteHeader(http.StatusOK)
	})
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	token, err := GenerateToken("secret", Employee{ID: uuid.New(), Role: shared.RoleCSR}, time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	protectedEndpoint(t, Authenticate("secret")).ServeHTTP(rec, bearerRequest(token))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateRejectsMissingOrBadToken(t *testing.T) {
	handler := protectedEndpoint(t, Authenticate("secret"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest(""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest("not-a-token"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateFailsClosedOnUnknownRole(t *testing.T) {
	token, err := GenerateToken("secret", Employee{ID: uuid.New(), Role: "superuser"}, time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	protectedEndpoint(t, Authenticate("secret")).ServeHTTP(rec, bearerRequest(token))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	handler := protectedEndpoint(t, Authenticate("secret"), RequireRole(shared.RoleWarehouse))

	warehouseToken, err := GenerateToken("secret", Employee{ID: uuid.New(), Role: shared.RoleWarehouse}, time.Hour)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest(warehouseToken))
	require.Equal(t, http.StatusOK, rec.Code)

	csrToken, err := GenerateToken("secret", Employee{ID: uuid.New(), Role: shared.RoleCSR}, time.Hour)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest(csrToken))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Admin passes every role gate.
	adminToken, err := GenerateToken("secret", Employee{ID: uuid.New(), Role: shared.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
}
