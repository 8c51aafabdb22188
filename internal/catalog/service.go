// Package catalog serves product data to the storefront. Products come from a
// Source (the remote demo API, or a CSV file for offline runs) and are cached
// in memory; the cart only ever receives copies.
package catalog

import (
	"context"
	"log"
	"strings"
	"sync"

	"storefront/internal/domain"
)

// Source provides the full product list.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// Filter narrows a listing. Category matches exactly; Query matches
// case-insensitively against title and description.
type Filter struct {
	Category string
	Query    string
}

// Service caches the catalog from its source after the first successful
// fetch.
type Service struct {
	source Source
	logger *log.Logger

	mu       sync.RWMutex
	products []domain.Product
	loaded   bool
}

func New(source Source, logger *log.Logger) *Service {
	return &Service{source: source, logger: logger}
}

// List returns the products matching filter, in catalog order.
func (s *Service) List(ctx context.Context, filter Filter) ([]domain.Product, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Get returns the product with the given ID or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int) (*domain.Product, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Categories returns the distinct category labels in first-seen order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var categories []string
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories, nil
}

// Refresh drops the cache and refetches on the next call.
func (s *Service) Refresh() {
	s.mu.Lock()
	s.loaded = false
	s.products = nil
	s.mu.Unlock()
}

func (s *Service) load(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	if s.loaded {
		products := s.products
		s.mu.RUnlock()
		return products, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.products, nil
	}

	products, err := s.source.Products(ctx)
	if err != nil {
		return nil, err
	}
	s.products = products
	s.loaded = true
	s.logger.Printf("catalog loaded: %d products", len(products))
	return s.products, nil
}
