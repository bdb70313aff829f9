package actors

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Service wraps employee identity business rules.
type Service struct {
	repo     RepositoryPort
	secret   string
	tokenTTL time.Duration
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort, secret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// SignUpInput carries a new employee registration.
type SignUpInput struct {
	Role     shared.Role
	FullName string
	Email    string
	Password string
}

// SignUp registers a new employee with a hashed password.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Employee, error) {
	if !in.Role.Valid() || in.Role == shared.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, in.Role)
	}
	if in.FullName == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: full name and email are required", shared.ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	emp := Employee{
		ID:           uuid.New(),
		Role:         in.Role,
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, emp); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	emp.PasswordHash = ""
	return &emp, nil
}

// Login validates credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Employee, error) {
	emp, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	token, err := GenerateToken(s.secret, *emp, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	emp.PasswordHash = ""
	return token, emp, nil
}

// Get returns a single employee by id.
func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	emp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	emp.PasswordHash = ""
	return emp, nil
}

// List returns all employees, for admin views.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	employees, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		employees[i].PasswordHash = ""
	}
	return employees, nil
}
