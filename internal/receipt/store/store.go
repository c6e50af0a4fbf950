package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/hometab/hometab/internal/receipt"
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

const selectReceiptColumns = `
	r.id, r.payer_id, r.merchant, r.date, r.total, r.created_at, r.updated_at, r.deleted_at
`

// scanReceipt reads a receipt row without its items.
// Expected column order: id, payer_id, merchant, date, total, created_at, updated_at, deleted_at
func scanReceipt(s scanner) (*receipt.Receipt, error) {
	var r receipt.Receipt

	if err := s.Scan(
		&r.ID, &r.PayerID, &r.Merchant, &r.Date, &r.Total,
		&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
	); err != nil {
		return nil, err
	}

	return &r, nil
}

func (s *Store) CreateReceipt(ctx context.Context, r *receipt.Receipt) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO receipts (payer_id, merchant, date, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		r.PayerID,
		r.Merchant,
		r.Date,
		r.Total,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating receipt: %w", err)
	}

	if err := insertItems(ctx, dbTx, r); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func insertItems(ctx context.Context, dbTx *sql.Tx, r *receipt.Receipt) error {
	itemQuery := `
		INSERT INTO line_items (receipt_id, name, price)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	assignQuery := `
		INSERT INTO item_assignments (line_item_id, participant_id)
		VALUES ($1, $2)
	`

	for i := range r.Items {
		item := &r.Items[i]

		if err := dbTx.QueryRowContext(ctx, itemQuery, r.ID, item.Name, item.Price).Scan(&item.ID); err != nil {
			return fmt.Errorf("creating line item: %w", err)
		}

		for _, pid := range item.Assigned {
			if _, err := dbTx.ExecContext(ctx, assignQuery, item.ID, pid); err != nil {
				return fmt.Errorf("creating item assignment: %w", err)
			}
		}
	}

	return nil
}

func (s *Store) GetReceipt(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	query := `SELECT ` + selectReceiptColumns + `
		FROM receipts r
		WHERE r.id = $1 AND r.deleted_at IS NULL`

	r, err := scanReceipt(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, receipt.ErrNotFound
		}

		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	if err := s.loadItems(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Store) loadItems(ctx context.Context, r *receipt.Receipt) error {
	itemQuery := `
		SELECT li.id, li.name, li.price, a.participant_id
		FROM line_items li
		LEFT JOIN item_assignments a ON a.line_item_id = li.id
		WHERE li.receipt_id = $1
		ORDER BY li.id, a.participant_id
	`

	rows, err := s.db.QueryContext(ctx, itemQuery, r.ID)
	if err != nil {
		return fmt.Errorf("loading line items: %w", err)
	}
	defer rows.Close()

	var items []receipt.LineItem

	for rows.Next() {
		var (
			itemID uuid.UUID
			name   string
			price  int64
			pid    *uuid.UUID
		)

		if err := rows.Scan(&itemID, &name, &price, &pid); err != nil {
			return fmt.Errorf("scanning line item: %w", err)
		}

		if len(items) == 0 || items[len(items)-1].ID != itemID {
			items = append(items, receipt.LineItem{ID: itemID, Name: name, Price: price})
		}

		if pid != nil {
			last := &items[len(items)-1]
			last.Assigned = append(last.Assigned, *pid)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating line items: %w", err)
	}

	r.Items = items

	return nil
}

func (s *Store) ListReceipts(ctx context.Context, filter receipt.ListFilter) ([]*receipt.Receipt, error) {
	query := `SELECT ` + selectReceiptColumns + `
		FROM receipts r
		WHERE r.deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.PayerID != nil {
		query += fmt.Sprintf(" AND r.payer_id = $%d", argIdx)

		args = append(args, *filter.PayerID)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND r.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND r.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY r.date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*receipt.Receipt

	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning receipt: %w", err)
		}

		receipts = append(receipts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating receipt rows: %w", err)
	}

	for _, r := range receipts {
		if err := s.loadItems(ctx, r); err != nil {
			return nil, err
		}
	}

	return receipts, nil
}

// UpdateReceipt rewrites the receipt header and its full item set. Items
// are replaced wholesale inside one transaction so readers never observe a
// half-updated receipt.
func (s *Store) UpdateReceipt(ctx context.Context, r *receipt.Receipt) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		UPDATE receipts
		SET merchant = $1, date = $2, total = $3, updated_at = NOW()
		WHERE id = $4 AND deleted_at IS NULL
	`

	if _, err := dbTx.ExecContext(ctx, query, r.Merchant, r.Date, r.Total, r.ID); err != nil {
		return fmt.Errorf("updating receipt: %w", err)
	}

	deleteItems := `
		DELETE FROM item_assignments
		WHERE line_item_id IN (SELECT id FROM line_items WHERE receipt_id = $1)
	`
	if _, err := dbTx.ExecContext(ctx, deleteItems, r.ID); err != nil {
		return fmt.Errorf("clearing item assignments: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM line_items WHERE receipt_id = $1`, r.ID); err != nil {
		return fmt.Errorf("clearing line items: %w", err)
	}

	if err := insertItems(ctx, dbTx, r); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE receipts
		SET deleted_at = NOW()
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}

	return nil
}

func (s *Store) ListDebts(ctx context.Context, receiptID uuid.UUID) ([]receipt.DebtRecord, error) {
	query := `
		SELECT receipt_id, payer_id, participant_id, amount_owed, kind, is_paid
		FROM debt_records
		WHERE receipt_id = $1
		ORDER BY participant_id
	`

	rows, err := s.db.QueryContext(ctx, query, receiptID)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}
	defer rows.Close()

	return scanDebts(rows)
}

func scanDebts(rows *sql.Rows) ([]receipt.DebtRecord, error) {
	var debts []receipt.DebtRecord

	for rows.Next() {
		var d receipt.DebtRecord

		var kind string

		if err := rows.Scan(&d.ReceiptID, &d.PayerID, &d.ParticipantID, &d.AmountOwed, &kind, &d.IsPaid); err != nil {
			return nil, fmt.Errorf("scanning debt record: %w", err)
		}

		d.Kind = receipt.Kind(kind)
		debts = append(debts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating debt rows: %w", err)
	}

	return debts, nil
}

func (s *Store) DebtSummary(ctx context.Context, participantID uuid.UUID) (*receipt.Summary, error) {
	summary := &receipt.Summary{ParticipantID: participantID}

	totalsQuery := `
		SELECT
			COALESCE(SUM(amount_owed) FILTER (WHERE participant_id = $1), 0),
			COALESCE(SUM(amount_owed) FILTER (WHERE payer_id = $1), 0)
		FROM debt_records d
		JOIN receipts r ON r.id = d.receipt_id
		WHERE NOT d.is_paid AND r.deleted_at IS NULL
			AND (d.participant_id = $1 OR d.payer_id = $1)
	`

	err := s.db.QueryRowContext(ctx, totalsQuery, participantID).
		Scan(&summary.TotalOwed, &summary.TotalOwedTo)
	if err != nil {
		return nil, fmt.Errorf("summing debts: %w", err)
	}

	openQuery := `
		SELECT d.receipt_id, d.payer_id, d.participant_id, d.amount_owed, d.kind, d.is_paid
		FROM debt_records d
		JOIN receipts r ON r.id = d.receipt_id
		WHERE NOT d.is_paid AND r.deleted_at IS NULL
			AND (d.participant_id = $1 OR d.payer_id = $1)
		ORDER BY r.date ASC, d.participant_id
	`

	rows, err := s.db.QueryContext(ctx, openQuery, participantID)
	if err != nil {
		return nil, fmt.Errorf("listing open debts: %w", err)
	}
	defer rows.Close()

	summary.OpenDebts, err = scanDebts(rows)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *Store) MarkDebtPaid(ctx context.Context, receiptID, participantID uuid.UUID) error {
	query := `
		UPDATE debt_records
		SET is_paid = TRUE
		WHERE receipt_id = $1 AND participant_id = $2
	`

	_, err := s.db.ExecContext(ctx, query, receiptID, participantID)
	if err != nil {
		return fmt.Errorf("marking debt paid: %w", err)
	}

	return nil
}

// reconcileLockKey derives an advisory lock key from the receipt id so two
// overlapping reconciles for the same receipt cannot interleave their
// delete and insert phases.
func reconcileLockKey(receiptID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(receiptID[:])

	return int64(h.Sum64())
}

type reconcileTx struct {
	tx *sql.Tx
}

func (s *Store) BeginReconcile(ctx context.Context, receiptID uuid.UUID) (receipt.ReconcileTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning reconcile tx: %w", err)
	}

	lockKey := reconcileLockKey(receiptID)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring reconcile lock: %w", err)
	}

	return &reconcileTx{tx: dbTx}, nil
}

func (rtx *reconcileTx) Commit() error   { return rtx.tx.Commit() }
func (rtx *reconcileTx) Rollback() error { return rtx.tx.Rollback() }

// ReplaceDebts supersedes the receipt's entire debt set. Delete and insert
// run in the same transaction; a failure leaves the prior set untouched.
func (rtx *reconcileTx) ReplaceDebts(ctx context.Context, receiptID uuid.UUID, debts []receipt.DebtRecord) error {
	if _, err := rtx.tx.ExecContext(ctx, `DELETE FROM debt_records WHERE receipt_id = $1`, receiptID); err != nil {
		return fmt.Errorf("clearing debt records: %w", err)
	}

	query := `
		INSERT INTO debt_records (receipt_id, payer_id, participant_id, amount_owed, kind, is_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
	`

	for _, d := range debts {
		if _, err := rtx.tx.ExecContext(ctx, query,
			d.ReceiptID,
			d.PayerID,
			d.ParticipantID,
			d.AmountOwed,
			d.Kind,
		); err != nil {
			return fmt.Errorf("creating debt record: %w", err)
		}
	}

	return nil
}
