package actors

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	emp := Employee{ID: uuid.New(), Role: shared.RoleWarehouse, Email: "w@example.com"}
	token, err := GenerateToken("secret", emp, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, emp.ID, claims.ActorID)
	require.Equal(t, shared.RoleWarehouse, claims.Role)
	require.Equal(t, "w@example.com", claims.Email)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	emp := Employee{ID: uuid.New(), Role: shared.RoleCSR}
	token, err := GenerateToken("secret", emp, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("other", token)
	require.Error(t, err)
}

func TestTokenExpiredRejected(t *testing.T) {
	emp := Employee{ID: uuid.New(), Role: shared.RoleCSR}
	token, err := GenerateToken("secret", emp, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	require.Error(t, err)
}

func TestTokenUnknownRoleFailsClosed(t *testing.T) {
	emp := Employee{ID: uuid.New(), Role: "superuser"}
	token, err := GenerateToken("secret", emp, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	require.Error(t, err)
}

func TestTokenMissingActorRejected(t *testing.T) {
	emp := Employee{Role: shared.RoleCSR}
	token, err := GenerateToken("secret", emp, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	require.Error(t, err)
}
