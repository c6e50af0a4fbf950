// Package merchant remembers user-curated merchant-to-category mappings
// that take precedence over the keyword classifier.
package merchant

import (
	"context"
	"fmt"

	"github.com/hometab/hometab/internal/category"
)

type Repository interface {
	FindCategory(ctx context.Context, merchantName string) (string, error)
	CreateMapping(ctx context.Context, pattern string, cat category.Category) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the learned category for a merchant name, falling back
// to the keyword classifier when no mapping matches.
func (s *Service) Suggest(ctx context.Context, merchantName string) (category.Category, error) {
	found, err := s.repo.FindCategory(ctx, merchantName)
	if err != nil {
		return "", err
	}

	if found != "" {
		return category.Category(found), nil
	}

	return category.Classify(merchantName), nil
}

// Learn remembers a new mapping between a merchant pattern and a category.
func (s *Service) Learn(ctx context.Context, pattern string, cat category.Category) error {
	if !category.Valid(cat) {
		return fmt.Errorf("unknown category: %s", cat)
	}

	return s.repo.CreateMapping(ctx, pattern, cat)
}
