package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hometab/hometab/internal/expense"
)

// DefaultLookbackMonths is how far back the forecast reads history when the
// caller does not say otherwise.
const DefaultLookbackMonths = 12

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=forecast
type Repository interface {
	ListExpenses(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
}

type Service struct {
	repo     Repository
	lookback int
}

func NewService(repo Repository, lookbackMonths int) *Service {
	if lookbackMonths <= 0 {
		lookbackMonths = DefaultLookbackMonths
	}

	return &Service{repo: repo, lookback: lookbackMonths}
}

// Forecast computes the participant's spending report over the lookback
// window. Results are never persisted; every call recomputes from the
// current history snapshot.
func (s *Service) Forecast(ctx context.Context, participantID uuid.UUID) (*Report, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -s.lookback+1, 0)

	expenses, err := s.repo.ListExpenses(ctx, expense.ListFilter{
		ParticipantID: &participantID,
		StartDate:     &start,
	})
	if err != nil {
		return nil, fmt.Errorf("listing expense history: %w", err)
	}

	return BuildReport(expenses), nil
}

// Recommend forecasts the participant's spending and evaluates it against
// a monthly budget in cents.
func (s *Service) Recommend(ctx context.Context, participantID uuid.UUID, budgetCents int64) (*Advice, error) {
	report, err := s.Forecast(ctx, participantID)
	if err != nil {
		return nil, err
	}

	return BuildAdvice(report, float64(budgetCents)/100), nil
}
