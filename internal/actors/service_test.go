package actors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

type memoryActorRepo struct {
	byEmail map[string]Employee
}

func newMemoryActorRepo() *memoryActorRepo {
	return &memoryActorRepo{byEmail: make(map[string]Employee)}
}

func (r *memoryActorRepo) Create(ctx context.Context, emp Employee) error {
	r.byEmail[emp.Email] = emp
	return nil
}

func (r *memoryActorRepo) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	emp, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &emp, nil
}

func (r *memoryActorRepo) FindByID(ctx context.Context, id string) (*Employee, error) {
	for _, emp := range r.byEmail {
		if emp.ID.String() == id {
			return &emp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryActorRepo) List(ctx context.Context) ([]Employee, error) {
	var out []Employee
	for _, emp := range r.byEmail {
		out = append(out, emp)
	}
	return out, nil
}

func TestSignUpAndLogin(t *testing.T) {
	repo := newMemoryActorRepo()
	svc := NewService(repo, "secret", time.Hour)
	ctx := context.Background()

	emp, err := svc.SignUp(ctx, SignUpInput{
		Role:     shared.RoleCSR,
		FullName: "Jamie Vu",
		Email:    "jamie@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Empty(t, emp.PasswordHash)

	token, logged, err := svc.Login(ctx, "jamie@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, emp.ID, logged.ID)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, shared.RoleCSR, claims.Role)
}

func TestSignUpValidation(t *testing.T) {
	svc := NewService(newMemoryActorRepo(), "secret", time.Hour)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Role: "pirate", FullName: "X", Email: "x@example.com", Password: "longenough"})
	require.ErrorIs(t, err, shared.ErrValidation)

	// Admin accounts are provisioned directly, not through sign-up.
	_, err = svc.SignUp(ctx, SignUpInput{Role: shared.RoleAdmin, FullName: "X", Email: "x@example.com", Password: "longenough"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.SignUp(ctx, SignUpInput{Role: shared.RoleCSR, FullName: "X", Email: "x@example.com", Password: "short"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newMemoryActorRepo()
	svc := NewService(repo, "secret", time.Hour)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{
		Role:     shared.RoleWarehouse,
		FullName: "Sam Ortiz",
		Email:    "sam@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "sam@example.com", "wrong-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
