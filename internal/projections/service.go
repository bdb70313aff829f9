package projections

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// ListResult is a cached page of the listing.
type ListResult struct {
	Orders []OrderRow `json:"orders"`
	Total  int        `json:"total"`
}

// Service serves role-scoped read models with optional caching.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns a filtered, role-scoped page of orders. Results are
// cached per filter combination; writers bump the cache version.
func (s *Service) List(ctx context.Context, role shared.Role, req ListRequest) (ListResult, error) {
	req.Scope(role)

	key, err := s.cache.BuildKey(ctx, "projections", "orders", string(role), cacheFingerprint(req))
	if err != nil {
		return ListResult{}, err
	}
	var result ListResult
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		orders, total, err := s.repo.List(ctx, req)
		if err != nil {
			return nil, err
		}
		return ListResult{Orders: orders, Total: total}, nil
	})
	if err != nil {
		return ListResult{}, err
	}
	return result, nil
}

// Warm preloads the default work-queue listing for every role. Called
// from the worker on a schedule.
func (s *Service) Warm(ctx context.Context) error {
	roles := []shared.Role{
		shared.RoleCSR, shared.RoleTeamLead, shared.RoleProcurement,
		shared.RoleWarehouse, shared.RoleAccounting, shared.RoleAdmin,
	}
	for _, role := range roles {
		if _, err := s.List(ctx, role, ListRequest{Status: "pending"}); err != nil {
			return fmt.Errorf("warm %s: %w", role, err)
		}
	}
	return nil
}

// Invalidate bumps the cache version after a write.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func cacheFingerprint(req ListRequest) string {
	from, to := "", ""
	if req.DateFrom != nil {
		from = strconv.FormatInt(req.DateFrom.Unix(), 10)
	}
	if req.DateTo != nil {
		to = strconv.FormatInt(req.DateTo.Unix(), 10)
	}
	return fmt.Sprintf("%s.%s.%s.%s.%s.%s.%d.%d",
		req.Stage, req.Status, req.Kind, req.ActorID, from, to, req.Limit, req.Offset)
}
