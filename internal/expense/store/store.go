package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/hometab/hometab/internal/category"
	"github.com/hometab/hometab/internal/expense"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectExpenseColumns = `
	e.id, e.participant_id, e.receipt_id, e.merchant, e.category, e.amount, e.date,
	e.created_at, e.updated_at, e.deleted_at
`

// scanExpense reads an expense row from the scanner.
// Expected column order: id, participant_id, receipt_id, merchant, category, amount, date, created_at, updated_at, deleted_at
func scanExpense(s scanner) (*expense.Expense, error) {
	var e expense.Expense

	var cat string

	if err := s.Scan(
		&e.ID, &e.ParticipantID, &e.ReceiptID, &e.Merchant, &cat, &e.Amount, &e.Date,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	); err != nil {
		return nil, err
	}

	e.Category = category.Category(cat)

	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		INSERT INTO expenses (participant_id, receipt_id, merchant, category, amount, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		e.ParticipantID,
		e.ReceiptID,
		e.Merchant,
		e.Category,
		e.Amount,
		e.Date,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating expense: %w", err)
	}

	return nil
}

func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses e
		WHERE e.id = $1 AND e.deleted_at IS NULL`

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses e
		WHERE e.deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.ParticipantID != nil {
		query += fmt.Sprintf(" AND e.participant_id = $%d", argIdx)

		args = append(args, *filter.ParticipantID)
		argIdx++
	}

	if filter.Category != nil {
		query += fmt.Sprintf(" AND e.category = $%d", argIdx)

		args = append(args, *filter.Category)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND e.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND e.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY e.date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*expense.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}

	return expenses, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		UPDATE expenses
		SET merchant = $1, category = $2, amount = $3, date = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
	`

	_, err := s.db.ExecContext(ctx, query,
		e.Merchant,
		e.Category,
		e.Amount,
		e.Date,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}

	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE expenses
		SET deleted_at = NOW()
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	return nil
}

func mirrorLockKey(receiptID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(receiptID[:])

	return int64(h.Sum64())
}

// ReplaceReceiptExpenses swaps out the expenses mirrored from a receipt.
// The advisory lock serializes concurrent saves of the same receipt so two
// mirrors cannot interleave their delete and insert phases.
func (s *Store) ReplaceReceiptExpenses(ctx context.Context, receiptID uuid.UUID, expenses []*expense.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning mirror tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", mirrorLockKey(receiptID)); err != nil {
		return fmt.Errorf("acquiring mirror lock: %w", err)
	}

	deleteQuery := `
		UPDATE expenses
		SET deleted_at = NOW()
		WHERE receipt_id = $1 AND deleted_at IS NULL
	`

	if _, err := tx.ExecContext(ctx, deleteQuery, receiptID); err != nil {
		return fmt.Errorf("clearing mirrored expenses: %w", err)
	}

	insertQuery := `
		INSERT INTO expenses (participant_id, receipt_id, merchant, category, amount, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	for _, e := range expenses {
		err := tx.QueryRowContext(ctx, insertQuery,
			e.ParticipantID,
			e.ReceiptID,
			e.Merchant,
			e.Category,
			e.Amount,
			e.Date,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("creating mirrored expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing mirror tx: %w", err)
	}

	return nil
}

func importLockKey(minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(minDate.Format("2006-01-02")))
	h.Write([]byte{0})
	h.Write([]byte(maxDate.Format("2006-01-02")))

	return int64(h.Sum64())
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context, minDate, maxDate time.Time) (expense.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(minDate, maxDate)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, params []expense.CreateParams) ([]*expense.Expense, error) {
	if len(params) == 0 {
		return nil, nil
	}

	type lookupKey struct {
		ParticipantID uuid.UUID
		Date          string
		Amount        int64
		Merchant      string
	}

	minDate := params[0].Date
	maxDate := params[0].Date
	keySet := make(map[lookupKey]struct{}, len(params))

	for _, p := range params {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}

		keySet[lookupKey{
			ParticipantID: p.ParticipantID,
			Date:          p.Date.Format("2006-01-02"),
			Amount:        p.Amount,
			Merchant:      p.Merchant,
		}] = struct{}{}
	}

	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses e
		WHERE e.deleted_at IS NULL AND e.date >= $1 AND e.date <= $2
		ORDER BY e.date ASC`

	rows, err := itx.tx.QueryContext(ctx, query, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []*expense.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		k := lookupKey{
			ParticipantID: e.ParticipantID,
			Date:          e.Date.Format("2006-01-02"),
			Amount:        e.Amount,
			Merchant:      e.Merchant,
		}

		_, found := keySet[k]
		if !found {
			continue
		}

		duplicates = append(duplicates, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return duplicates, nil
}

func (itx *importTx) CreateExpenses(ctx context.Context, expenses []*expense.Expense) error {
	query := `
		INSERT INTO expenses (participant_id, receipt_id, merchant, category, amount, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	for _, e := range expenses {
		err := itx.tx.QueryRowContext(ctx, query,
			e.ParticipantID,
			e.ReceiptID,
			e.Merchant,
			e.Category,
			e.Amount,
			e.Date,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("creating expense: %w", err)
		}
	}

	return nil
}
