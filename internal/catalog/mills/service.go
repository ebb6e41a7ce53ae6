package mills

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	catalog "github.com/tantu-erp/tantu/internal/catalog/shared"
	"github.com/tantu-erp/tantu/internal/platform/cache"
	"github.com/tantu-erp/tantu/internal/shared"
)

type Service struct {
	repo   Repository
	cache  *cache.Cache
	logger *slog.Logger
}

func NewService(repo Repository, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

func (s *Service) List(ctx context.Context, filters catalog.ListFilters) ([]Mill, error) {
	key, err := s.cache.BuildKey(ctx, CacheNamespace, filters.CacheParts()...)
	if err != nil {
		s.logger.Warn("mill cache unavailable", slog.Any("error", err))
		return s.repo.List(ctx, filters)
	}
	var mills []Mill
	err = s.cache.FetchJSON(ctx, key, &mills, func(ctx context.Context) (any, error) {
		return s.repo.List(ctx, filters)
	})
	return mills, err
}

func (s *Service) Get(ctx context.Context, id int64) (Mill, error) {
	if id <= 0 {
		return Mill{}, shared.Validation("invalid mill id")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateMillRequest) (Mill, error) {
	req.Name = shared.NormalizeName(req.Name)
	req.Contact = shared.NormalizeName(req.Contact)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	if err := shared.Validate(req); err != nil {
		return Mill{}, err
	}
	mill, err := s.repo.Create(ctx, Mill{
		Name:    req.Name,
		Contact: req.Contact,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return Mill{}, fmt.Errorf("create mill: %w", err)
	}
	if err := s.cache.Bump(ctx, CacheNamespace); err != nil {
		s.logger.Warn("mill cache bump failed", slog.Any("error", err))
	}
	return mill, nil
}
