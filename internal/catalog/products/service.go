package products

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

func (s *Service) List(ctx context.Context, filters catalog.ListFilters) ([]Product, error) {
	key, err := s.cache.BuildKey(ctx, CacheNamespace, filters.CacheParts()...)
	if err != nil {
		s.logger.Warn("product cache unavailable", slog.Any("error", err))
		return s.repo.List(ctx, filters)
	}
	var products []Product
	err = s.cache.FetchJSON(ctx, key, &products, func(ctx context.Context) (any, error) {
		return s.repo.List(ctx, filters)
	})
	return products, err
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.Validation("invalid product id")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	req.Name = shared.NormalizeName(req.Name)
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		req.Description = &d
		if d == "" {
			req.Description = nil
		}
	}
	if err := shared.Validate(req); err != nil {
		return Product{}, err
	}
	product, err := s.repo.Create(ctx, Product{Name: req.Name, Description: req.Description})
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	if err := s.cache.Bump(ctx, CacheNamespace); err != nil {
		s.logger.Warn("product cache bump failed", slog.Any("error", err))
	}
	return product, nil
}
