package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

type memoryCatalogRepo struct {
	items map[uuid.UUID]Item
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{items: make(map[uuid.UUID]Item)}
}

func (r *memoryCatalogRepo) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	var out []Item
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, len(out), nil
}

func (r *memoryCatalogRepo) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &item, nil
}

func (r *memoryCatalogRepo) Create(ctx context.Context, item Item) error {
	r.items[item.ID] = item
	return nil
}

func (r *memoryCatalogRepo) Update(ctx context.Context, item Item) error {
	stored, ok := r.items[item.ID]
	if !ok {
		return shared.ErrNotFound
	}
	// The repository never writes stock_qty on update.
	item.StockQty = stored.StockQty
	r.items[item.ID] = item
	return nil
}

func TestCreateItem(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)

	item, err := svc.Create(context.Background(), CreateItemInput{
		Name:         "Field Radio",
		Brand:        "Acme",
		Category:     "electronics",
		Price:        decimal.RequireFromString("199.99"),
		InitialStock: 25,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, item.ID)
	require.Equal(t, int64(25), item.StockQty)

	_, err = svc.Create(context.Background(), CreateItemInput{Price: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateItemInput{
		Name:  "Bad",
		Price: decimal.RequireFromString("-1"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateItemLeavesStockAlone(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)
	ctx := context.Background()

	item, err := svc.Create(ctx, CreateItemInput{
		Name:         "Field Radio",
		Price:        decimal.RequireFromString("199.99"),
		InitialStock: 10,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, item.ID, UpdateItemInput{
		Name:  "Field Radio Mk2",
		Price: decimal.RequireFromString("249.99"),
	})
	require.NoError(t, err)
	require.Equal(t, "Field Radio Mk2", updated.Name)

	stored, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), stored.StockQty)
	require.Equal(t, "249.99", stored.Price.String())
}

func TestUpdateMissingItem(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())
	_, err := svc.Update(context.Background(), uuid.New(), UpdateItemInput{
		Name:  "Ghost",
		Price: decimal.Zero,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
