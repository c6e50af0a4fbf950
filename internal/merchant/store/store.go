package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hometab/hometab/internal/category"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindCategory(ctx context.Context, merchantName string) (string, error) {
	query := `
		SELECT category
		FROM merchant_mappings
		WHERE $1 ILIKE '%' || pattern || '%'
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var cat string

	err := s.db.QueryRowContext(ctx, query, merchantName).Scan(&cat)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}

		return "", fmt.Errorf("finding merchant mapping: %w", err)
	}

	return cat, nil
}

func (s *Store) CreateMapping(ctx context.Context, pattern string, cat category.Category) error {
	query := `
		INSERT INTO merchant_mappings (pattern, category, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.ExecContext(ctx, query, pattern, cat)
	if err != nil {
		return fmt.Errorf("creating merchant mapping: %w", err)
	}

	return nil
}
