package expense

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hometab/hometab/internal/category"
	"github.com/hometab/hometab/internal/receipt"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, filter ListFilter) ([]*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	ReplaceReceiptExpenses(ctx context.Context, receiptID uuid.UUID, expenses []*Expense) error

	BeginImport(ctx context.Context, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Expense, error)
	CreateExpenses(ctx context.Context, expenses []*Expense) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	ParticipantID uuid.UUID
	Merchant      string
	Category      category.Category
	Amount        int64
	Date          time.Time
}

type ListFilter struct {
	ParticipantID *uuid.UUID
	Category      *category.Category
	StartDate     *time.Time
	EndDate       *time.Time
}

// Create stores an expense, classifying the merchant when no category was
// supplied.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Expense, error) {
	e := &Expense{
		ParticipantID: params.ParticipantID,
		Merchant:      params.Merchant,
		Category:      resolveCategory(params),
		Amount:        params.Amount,
		Date:          params.Date,
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, filter)
}

func (s *Service) Update(ctx context.Context, e *Expense) error {
	return s.repo.UpdateExpense(ctx, e)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteExpense(ctx, id)
}

// SyncReceipt replaces the expenses mirrored from a receipt with the given
// entries. Mirrored entries are categorized from the receipt merchant; an
// empty entry set removes the receipt's expenses.
func (s *Service) SyncReceipt(ctx context.Context, receiptID uuid.UUID, entries []receipt.ExpenseEntry) error {
	expenses := make([]*Expense, len(entries))
	for i, entry := range entries {
		expenses[i] = &Expense{
			ParticipantID: entry.ParticipantID,
			ReceiptID:     &receiptID,
			Merchant:      entry.Merchant,
			Category:      category.Classify(entry.Merchant),
			Amount:        entry.Amount,
			Date:          entry.Date,
		}
	}
	return s.repo.ReplaceReceiptExpenses(ctx, receiptID, expenses)
}

type ImportResult struct {
	Imported  []*Expense
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Expense
}

// ImportBatch stores a batch of expenses after checking for duplicates
// already present in the overlapping date range. When conflicts exist,
// nothing is written and the split between new and conflicting rows is
// returned for the caller to confirm.
func (s *Service) ImportBatch(ctx context.Context, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	type dupKey struct {
		ParticipantID uuid.UUID
		Date          string
		Amount        int64
		Merchant      string
	}

	lookup := make(map[dupKey]*Expense, len(duplicates))

	for _, d := range duplicates {
		k := dupKey{
			ParticipantID: d.ParticipantID,
			Date:          d.Date.Format(time.DateOnly),
			Amount:        d.Amount,
			Merchant:      d.Merchant,
		}
		lookup[k] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		k := dupKey{
			ParticipantID: p.ParticipantID,
			Date:          p.Date.Format(time.DateOnly),
			Amount:        p.Amount,
			Merchant:      p.Merchant,
		}

		existing, found := lookup[k]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	expenses := paramsToExpenses(newParams)
	if err := itx.CreateExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("create expenses: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: expenses}, nil
}

// CreateBatch stores a batch unconditionally, used to confirm an import
// after the caller resolved its conflicts.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]*Expense, error) {
	if len(params) == 0 {
		return nil, nil
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	expenses := paramsToExpenses(params)
	if err := itx.CreateExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("create expenses: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return expenses, nil
}

func resolveCategory(p CreateParams) category.Category {
	if p.Category != "" && category.Valid(p.Category) {
		return p.Category
	}

	return category.Classify(p.Merchant)
}

func dateRange(params []CreateParams) (time.Time, time.Time) {
	minDate := params[0].Date
	maxDate := params[0].Date

	for _, p := range params[1:] {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	return minDate, maxDate
}

func paramsToExpenses(params []CreateParams) []*Expense {
	expenses := make([]*Expense, len(params))
	for i, p := range params {
		expenses[i] = &Expense{
			ParticipantID: p.ParticipantID,
			Merchant:      p.Merchant,
			Category:      resolveCategory(p),
			Amount:        p.Amount,
			Date:          p.Date,
		}
	}

	return expenses
}
