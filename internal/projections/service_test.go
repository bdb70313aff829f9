package projections

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

type memoryReadRepo struct {
	rows     []OrderRow
	lastReq  ListRequest
	listHits int
}

func (r *memoryReadRepo) List(ctx context.Context, req ListRequest) ([]OrderRow, int, error) {
	r.lastReq = req
	r.listHits++
	var out []OrderRow
	for _, row := range r.rows {
		if len(req.visibleStages) > 0 && !containsStage(req.visibleStages, row.Stage) {
			continue
		}
		if req.Status != "" && row.Status != req.Status {
			continue
		}
		out = append(out, row)
	}
	return out, len(out), nil
}

func containsStage(stages []string, stage string) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func sampleRows() []OrderRow {
	now := time.Now().UTC()
	return []OrderRow{
		{ID: "a", Stage: "csr", Status: "pending", CreatedAt: now},
		{ID: "b", Stage: "warehouse", Status: "pending", CreatedAt: now},
		{ID: "c", Stage: "accounting", Status: "invoiced", CreatedAt: now},
	}
}

func TestListScopesByRole(t *testing.T) {
	repo := &memoryReadRepo{rows: sampleRows()}
	svc := NewService(repo, newTestCache(t))
	ctx := context.Background()

	result, err := svc.List(ctx, shared.RoleWarehouse, ListRequest{})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	require.Equal(t, "b", result.Orders[0].ID)

	result, err = svc.List(ctx, shared.RoleAdmin, ListRequest{})
	require.NoError(t, err)
	require.Len(t, result.Orders, 3)
}

func TestListScopeIgnoresCallerSuppliedStages(t *testing.T) {
	repo := &memoryReadRepo{rows: sampleRows()}
	svc := NewService(repo, newTestCache(t))

	// A warehouse caller asking for the accounting stage still only sees
	// warehouse rows.
	result, err := svc.List(context.Background(), shared.RoleWarehouse, ListRequest{Stage: "accounting"})
	require.NoError(t, err)
	require.Empty(t, result.Orders)
	require.Equal(t, []string{"warehouse"}, repo.lastReq.visibleStages)
}

func TestListCachesUntilInvalidated(t *testing.T) {
	repo := &memoryReadRepo{rows: sampleRows()}
	svc := NewService(repo, newTestCache(t))
	ctx := context.Background()

	_, err := svc.List(ctx, shared.RoleAdmin, ListRequest{})
	require.NoError(t, err)
	_, err = svc.List(ctx, shared.RoleAdmin, ListRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.listHits, "second read should come from cache")

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.List(ctx, shared.RoleAdmin, ListRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, repo.listHits, "invalidation should force a reload")
}

func TestListDistinctFiltersDistinctKeys(t *testing.T) {
	repo := &memoryReadRepo{rows: sampleRows()}
	svc := NewService(repo, newTestCache(t))
	ctx := context.Background()

	_, err := svc.List(ctx, shared.RoleAdmin, ListRequest{Status: "pending"})
	require.NoError(t, err)
	_, err = svc.List(ctx, shared.RoleAdmin, ListRequest{Status: "invoiced"})
	require.NoError(t, err)
	require.Equal(t, 2, repo.listHits)
}

func TestWarmPreloadsEveryRole(t *testing.T) {
	repo := &memoryReadRepo{rows: sampleRows()}
	svc := NewService(repo, newTestCache(t))

	require.NoError(t, svc.Warm(context.Background()))
	require.Equal(t, 6, repo.listHits)
}

func TestCacheDegradesWithoutRedis(t *testing.T) {
	repo := &memoryReadRepo{rows: sampleRows()}
	svc := NewService(repo, NewCache(nil, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.List(ctx, shared.RoleAdmin, ListRequest{})
		require.NoError(t, err)
	}
	require.Equal(t, 3, repo.listHits)
	require.NoError(t, svc.Invalidate(ctx))
}
