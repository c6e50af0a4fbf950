package receipt

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=receipt
type Repository interface {
	CreateReceipt(ctx context.Context, r *Receipt) error
	GetReceipt(ctx context.Context, id uuid.UUID) (*Receipt, error)
	ListReceipts(ctx context.Context, filter ListFilter) ([]*Receipt, error)
	UpdateReceipt(ctx context.Context, r *Receipt) error
	DeleteReceipt(ctx context.Context, id uuid.UUID) error

	ListDebts(ctx context.Context, receiptID uuid.UUID) ([]DebtRecord, error)
	DebtSummary(ctx context.Context, participantID uuid.UUID) (*Summary, error)
	MarkDebtPaid(ctx context.Context, receiptID, participantID uuid.UUID) error

	BeginReconcile(ctx context.Context, receiptID uuid.UUID) (ReconcileTx, error)
}

// ReconcileTx is the critical section around a receipt's debt set. Replace
// supersedes the full prior set in one shot; overlapping reconciles for the
// same receipt are serialized at the persistence boundary.
type ReconcileTx interface {
	ReplaceDebts(ctx context.Context, receiptID uuid.UUID, debts []DebtRecord) error
	Commit() error
	Rollback() error
}

// ExpenseEntry is one participant's share of a receipt, destined for the
// spending history.
type ExpenseEntry struct {
	ParticipantID uuid.UUID
	Merchant      string
	Amount        int64
	Date          time.Time
}

// ExpenseMirror keeps the spending history in step with the ledger. Every
// save replaces the receipt's prior entries; an empty entry set clears them.
type ExpenseMirror interface {
	SyncReceipt(ctx context.Context, receiptID uuid.UUID, entries []ExpenseEntry) error
}

type Service struct {
	repo   Repository
	mirror ExpenseMirror
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// MirrorExpenses routes per-participant shares of saved receipts into the
// given sink so the forecast reads one uniform series. Without a sink,
// receipts stay out of the spending history.
func (s *Service) MirrorExpenses(mirror ExpenseMirror) {
	s.mirror = mirror
}

type ItemParams struct {
	Name     string
	Price    int64
	Assigned []uuid.UUID
}

type CreateParams struct {
	PayerID  uuid.UUID
	Merchant string
	Date     time.Time
	Items    []ItemParams
}

type ListFilter struct {
	PayerID   *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

// Summary is a participant's position across all receipts: what they owe
// others and what others owe them, counting only unpaid records.
type Summary struct {
	ParticipantID uuid.UUID
	TotalOwed     int64 // Cents this participant owes to payers
	TotalOwedTo   int64 // Cents other participants owe them
	OpenDebts     []DebtRecord
}

// Create saves a new receipt and reconciles its debt set. The synthetic
// Self participant in item assignments is resolved to actingUser before
// anything is computed or persisted.
func (s *Service) Create(ctx context.Context, params CreateParams, actingUser uuid.UUID) (*Receipt, error) {
	items := make([]LineItem, len(params.Items))
	for i, p := range params.Items {
		items[i] = LineItem{
			Name:     p.Name,
			Price:    p.Price,
			Assigned: p.Assigned,
		}
	}

	payerID := params.PayerID
	if payerID == Self {
		payerID = actingUser
	}

	r := &Receipt{
		PayerID:  payerID,
		Merchant: params.Merchant,
		Date:     params.Date,
		Items:    ResolveSelf(items, actingUser),
	}
	r.Total = ComputeTotal(r.Items)

	if err := s.repo.CreateReceipt(ctx, r); err != nil {
		return nil, fmt.Errorf("creating receipt: %w", err)
	}

	if err := s.reconcile(ctx, r); err != nil {
		return nil, err
	}

	if err := s.syncMirror(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Receipt, error) {
	return s.repo.ListReceipts(ctx, filter)
}

// UpdateItems replaces a receipt's items and assignments, recomputes the
// total, and reconciles the debt set against the new state.
func (s *Service) UpdateItems(ctx context.Context, id uuid.UUID, params []ItemParams, actingUser uuid.UUID) (*Receipt, error) {
	r, err := s.repo.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, len(params))
	for i, p := range params {
		items[i] = LineItem{
			Name:     p.Name,
			Price:    p.Price,
			Assigned: p.Assigned,
		}
	}

	r.Items = ResolveSelf(items, actingUser)
	r.Total = ComputeTotal(r.Items)

	if err := s.repo.UpdateReceipt(ctx, r); err != nil {
		return nil, fmt.Errorf("updating receipt: %w", err)
	}

	if err := s.reconcile(ctx, r); err != nil {
		return nil, err
	}

	if err := s.syncMirror(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// RemoveParticipant drops a participant from every item on the receipt and
// reconciles. Items left with empty assignment sets revert to payer
// absorption.
func (s *Service) RemoveParticipant(ctx context.Context, id, participantID uuid.UUID) (*Receipt, error) {
	r, err := s.repo.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}

	r.Items = RemoveParticipant(r.Items, participantID)
	r.Total = ComputeTotal(r.Items)

	if err := s.repo.UpdateReceipt(ctx, r); err != nil {
		return nil, fmt.Errorf("updating receipt: %w", err)
	}

	if err := s.reconcile(ctx, r); err != nil {
		return nil, err
	}

	if err := s.syncMirror(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// Delete soft-deletes the receipt, clears its debt records, and withdraws
// its mirrored expenses so neither the ledger nor the spending history
// reflect it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := s.repo.GetReceipt(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteReceipt(ctx, id); err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}

	r.Items = nil
	r.Total = 0

	if err := s.reconcile(ctx, r); err != nil {
		return err
	}

	return s.syncMirror(ctx, r)
}

// ReconcileDebts recomputes and replaces the receipt's debt set. Running it
// repeatedly with unchanged assignments is a no-op on the resulting set.
func (s *Service) ReconcileDebts(ctx context.Context, id uuid.UUID) ([]DebtRecord, error) {
	r, err := s.repo.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.reconcile(ctx, r); err != nil {
		return nil, err
	}

	return s.repo.ListDebts(ctx, id)
}

// reconcile replaces the receipt's full debt set atomically. On any error
// the prior set stays authoritative; there is no partial state in between.
func (s *Service) reconcile(ctx context.Context, r *Receipt) error {
	records := Reconcile(r)

	tx, err := s.repo.BeginReconcile(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("begin reconcile: %w", err)
	}
	defer tx.Rollback()

	if err := tx.ReplaceDebts(ctx, r.ID, records); err != nil {
		return fmt.Errorf("replace debts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reconcile: %w", err)
	}

	return nil
}

// syncMirror replaces the receipt's mirrored expense entries with its
// current per-participant shares. Entry order is deterministic so repeated
// saves hand the sink identical sets.
func (s *Service) syncMirror(ctx context.Context, r *Receipt) error {
	if s.mirror == nil {
		return nil
	}

	shares := ExpenseShares(r)

	entries := make([]ExpenseEntry, 0, len(shares))
	for pid, amount := range shares {
		entries = append(entries, ExpenseEntry{
			ParticipantID: pid,
			Merchant:      r.Merchant,
			Amount:        amount,
			Date:          r.Date,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ParticipantID.String() < entries[j].ParticipantID.String()
	})

	if err := s.mirror.SyncReceipt(ctx, r.ID, entries); err != nil {
		return fmt.Errorf("mirroring expenses: %w", err)
	}

	return nil
}

func (s *Service) Debts(ctx context.Context, receiptID uuid.UUID) ([]DebtRecord, error) {
	return s.repo.ListDebts(ctx, receiptID)
}

func (s *Service) Summary(ctx context.Context, participantID uuid.UUID) (*Summary, error) {
	return s.repo.DebtSummary(ctx, participantID)
}

// MarkPaid flips a debt record's paid flag. Payment is binary; partial
// payments are not modeled.
func (s *Service) MarkPaid(ctx context.Context, receiptID, participantID uuid.UUID) error {
	return s.repo.MarkDebtPaid(ctx, receiptID, participantID)
}
