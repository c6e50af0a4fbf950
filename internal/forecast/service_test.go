package forecast_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hometab/hometab/internal/category"
	"github.com/hometab/hometab/internal/expense"
	"github.com/hometab/hometab/internal/forecast"
)

func TestService_Forecast(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := forecast.NewMockRepository(ctrl)
	svc := forecast.NewService(repo, 6)

	participant := uuid.New()
	now := time.Now().UTC()

	repo.EXPECT().
		ListExpenses(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
			require.NotNil(t, filter.ParticipantID)
			assert.Equal(t, participant, *filter.ParticipantID)

			// Six-month lookback: the window starts five months before the
			// first of the current month.
			require.NotNil(t, filter.StartDate)
			wantStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
				AddDate(0, -5, 0)
			assert.Equal(t, wantStart, *filter.StartDate)

			return []*expense.Expense{
				{ParticipantID: participant, Category: category.Groceries, Amount: 12000, Date: now.AddDate(0, -1, 0)},
				{ParticipantID: participant, Category: category.Groceries, Amount: 11000, Date: now},
			}, nil
		})

	report, err := svc.Forecast(context.Background(), participant)
	require.NoError(t, err)
	require.Len(t, report.Categories, 1)
	assert.Equal(t, category.Groceries, report.Categories[0].Category)
	assert.Equal(t, 2, report.Categories[0].ReceiptCount)
}

func TestService_Forecast_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := forecast.NewMockRepository(ctrl)
	svc := forecast.NewService(repo, 0) // zero falls back to the default lookback

	repo.EXPECT().
		ListExpenses(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("db error"))

	_, err := svc.Forecast(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestService_Recommend(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := forecast.NewMockRepository(ctrl)
	svc := forecast.NewService(repo, 12)

	participant := uuid.New()
	now := time.Now().UTC()

	repo.EXPECT().
		ListExpenses(gomock.Any(), gomock.Any()).
		Return([]*expense.Expense{
			{ParticipantID: participant, Category: category.Dining, Amount: 300000, Date: now},
		}, nil)

	advice, err := svc.Recommend(context.Background(), participant, 100000) // $1000 budget
	require.NoError(t, err)
	require.NotEmpty(t, advice.Recommendations)
	assert.Equal(t, "warning", advice.Recommendations[0].Type)
}
