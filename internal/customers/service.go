package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

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

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	req.Name = shared.NormalizeName(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if req.CreditLimit.IsNegative() {
		return nil, shared.Validation("credit_limit must not be negative")
	}

	customer, err := s.repo.Create(ctx, Customer{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		CreditLimit: req.CreditLimit.Round(2),
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	if err := s.cache.Bump(ctx, CacheNamespace); err != nil {
		s.logger.Warn("customer cache bump failed", slog.Any("error", err))
	}
	return customer, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	key, err := s.cache.BuildKey(ctx, CacheNamespace, "get", strconv.FormatInt(id, 10))
	if err != nil {
		s.logger.Warn("customer cache unavailable", slog.Any("error", err))
		return s.repo.Get(ctx, id)
	}
	var customer Customer
	err = s.cache.FetchJSON(ctx, key, &customer, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Service) List(ctx context.Context) ([]Customer, error) {
	key, err := s.cache.BuildKey(ctx, CacheNamespace, "list")
	if err != nil {
		s.logger.Warn("customer cache unavailable", slog.Any("error", err))
		return s.repo.List(ctx)
	}
	var customers []Customer
	err = s.cache.FetchJSON(ctx, key, &customers, func(ctx context.Context) (any, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}
