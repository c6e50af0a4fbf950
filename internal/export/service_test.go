package export_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hometab/hometab/internal/category"
	"github.com/hometab/hometab/internal/expense"
	"github.com/hometab/hometab/internal/export"
	"github.com/hometab/hometab/internal/receipt"
)

type stubLister struct {
	expenses []*expense.Expense
	err      error
}

func (s *stubLister) List(_ context.Context, _ expense.ListFilter) ([]*expense.Expense, error) {
	return s.expenses, s.err
}

func TestExportCSV(t *testing.T) {
	lister := &stubLister{
		expenses: []*expense.Expense{
			{
				ID:       uuid.New(),
				Merchant: "Whole Foods Market",
				Category: category.Groceries,
				Amount:   5874,
				Date:     time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC),
			},
			{
				ID:       uuid.New(),
				Merchant: "Netflix",
				Category: category.Subscriptions,
				Amount:   1599,
				Date:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	svc := export.NewService(lister)

	var buf bytes.Buffer
	err := svc.ExportCSV(context.Background(), expense.ListFilter{}, &buf)
	require.NoError(t, err)

	want := "Date,Merchant,Category,Amount\n" +
		"2026-01-30,Whole Foods Market,Groceries,58.74\n" +
		"2026-02-01,Netflix,Subscriptions,15.99\n"
	assert.Equal(t, want, buf.String())
}

func TestExportCSV_ListError(t *testing.T) {
	svc := export.NewService(&stubLister{err: errors.New("db down")})

	var buf bytes.Buffer
	err := svc.ExportCSV(context.Background(), expense.ListFilter{}, &buf)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestSettleUpBody(t *testing.T) {
	p1 := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	p2 := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	svc := export.NewService(&stubLister{})

	body := svc.SettleUpBody([]*receipt.Summary{
		{
			ParticipantID: p1,
			TotalOwed:     500,
			TotalOwedTo:   0,
			OpenDebts:     []receipt.DebtRecord{{ParticipantID: p1, AmountOwed: 500}},
		},
		{
			ParticipantID: p2,
			TotalOwed:     0,
			TotalOwedTo:   500,
		},
	})

	want := "* 11111111-1111-1111-1111-111111111111 | owes 5.00 | is owed 0.00 | net -5.00 | 1 open\n" +
		"* 22222222-2222-2222-2222-222222222222 | owes 0.00 | is owed 5.00 | net +5.00 | 0 open\n"
	assert.Equal(t, want, body)
}
