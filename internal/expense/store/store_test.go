package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hometab/hometab/internal/expense"
	"github.com/hometab/hometab/internal/expense/store"
)

var expenseColumns = []string{
	"id", "participant_id", "receipt_id", "merchant", "category", "amount", "date",
	"created_at", "updated_at", "deleted_at",
}

func TestListExpenses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(expenseColumns).
		AddRow(uuid.NewString(), uuid.NewString(), nil, "LIDL", "Groceries", int64(1250), now, now, nil, nil).
		AddRow(uuid.NewString(), uuid.NewString(), nil, "Netflix", "Entertainment", int64(999), now, now, nil, nil)

	mock.ExpectQuery("FROM expenses").WillReturnRows(rows)

	expenses, err := store.New(db).ListExpenses(context.Background(), expense.ListFilter{})
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "LIDL", expenses[0].Merchant)
	assert.Equal(t, int64(999), expenses[1].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpenses_RowIterationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The driver fails mid-iteration. A partial list with a nil error would
	// silently truncate the spending history.
	now := time.Now()
	rows := sqlmock.NewRows(expenseColumns).
		AddRow(uuid.NewString(), uuid.NewString(), nil, "LIDL", "Groceries", int64(1250), now, now, nil, nil).
		AddRow(uuid.NewString(), uuid.NewString(), nil, "REWE", "Groceries", int64(800), now, now, nil, nil).
		RowError(1, errors.New("connection reset"))

	mock.ExpectQuery("FROM expenses").WillReturnRows(rows)

	expenses, err := store.New(db).ListExpenses(context.Background(), expense.ListFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, expenses)
	assert.NoError(t, mock.ExpectationsWereMet())
}
