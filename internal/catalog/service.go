package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Service handles catalog business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns items matching the filters plus the total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// CreateItemInput carries a new item definition. InitialStock is the
// only path that seeds stock_qty; afterwards only reservations move it.
type CreateItemInput struct {
	Name         string
	Brand        string
	Model        string
	Category     string
	Price        decimal.Decimal
	InitialStock int64
}

// Create registers a new catalog item.
func (s *Service) Create(ctx context.Context, in CreateItemInput) (*Item, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("catalog: name is required: %w", shared.ErrValidation)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("catalog: price must not be negative: %w", shared.ErrValidation)
	}
	if in.InitialStock < 0 {
		return nil, fmt.Errorf("catalog: initial stock must not be negative: %w", shared.ErrValidation)
	}
	now := time.Now().UTC()
	item := Item{
		ID:        uuid.New(),
		Name:      in.Name,
		Brand:     in.Brand,
		Model:     in.Model,
		Category:  in.Category,
		Price:     in.Price,
		StockQty:  in.InitialStock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

// UpdateItemInput carries metadata and price changes.
type UpdateItemInput struct {
	Name     string
	Brand    string
	Model    string
	Category string
	Price    decimal.Decimal
}

// Update changes an item's metadata and price. Stock is untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateItemInput) (*Item, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("catalog: name is required: %w", shared.ErrValidation)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("catalog: price must not be negative: %w", shared.ErrValidation)
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = in.Name
	item.Brand = in.Brand
	item.Model = in.Model
	item.Category = in.Category
	item.Price = in.Price
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *item); err != nil {
		return nil, err
	}
	return item, nil
}
