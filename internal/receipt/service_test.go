package receipt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hometab/hometab/internal/receipt"
)

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	rtx := receipt.NewMockReconcileTx(ctrl)
	svc := receipt.NewService(repo)

	actingUser := uuid.New()
	receiptID := uuid.New()

	params := receipt.CreateParams{
		PayerID:  receipt.Self,
		Merchant: "Corner Market",
		Date:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Items: []receipt.ItemParams{
			{Name: "Milk", Price: 350, Assigned: []uuid.UUID{receipt.Self, p2}},
			{Name: "Snacks", Price: 500, Assigned: []uuid.UUID{p2}},
		},
	}

	repo.EXPECT().
		CreateReceipt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *receipt.Receipt) error {
			// Self resolved uniformly before persistence.
			assert.Equal(t, actingUser, r.PayerID)
			assert.Equal(t, []uuid.UUID{actingUser, p2}, r.Items[0].Assigned)
			assert.Equal(t, int64(850), r.Total)

			r.ID = receiptID
			r.CreatedAt = time.Now()
			return nil
		})

	repo.EXPECT().BeginReconcile(gomock.Any(), receiptID).Return(rtx, nil)
	rtx.EXPECT().
		ReplaceDebts(gomock.Any(), receiptID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, debts []receipt.DebtRecord) error {
			// P2 owes half of 3.50 plus all of 5.00.
			require.Len(t, debts, 1)
			assert.Equal(t, p2, debts[0].ParticipantID)
			assert.Equal(t, int64(675), debts[0].AmountOwed)
			return nil
		})
	rtx.EXPECT().Commit().Return(nil)
	rtx.EXPECT().Rollback().Return(nil)

	r, err := svc.Create(context.Background(), params, actingUser)
	require.NoError(t, err)
	assert.Equal(t, receiptID, r.ID)
}

func TestService_Create_ReplaceFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	rtx := receipt.NewMockReconcileTx(ctrl)
	svc := receipt.NewService(repo)

	actingUser := uuid.New()

	repo.EXPECT().
		CreateReceipt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *receipt.Receipt) error {
			r.ID = uuid.New()
			return nil
		})
	repo.EXPECT().BeginReconcile(gomock.Any(), gomock.Any()).Return(rtx, nil)
	rtx.EXPECT().ReplaceDebts(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db error"))
	rtx.EXPECT().Rollback().Return(nil)
	// No Commit: a failed replace must never be half-applied.

	_, err := svc.Create(context.Background(), receipt.CreateParams{
		PayerID: actingUser,
		Items: []receipt.ItemParams{
			{Name: "Dinner", Price: 4000, Assigned: []uuid.UUID{p2}},
		},
	}, actingUser)

	assert.Error(t, err)
}

func TestService_UpdateItems_Reconciles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	rtx := receipt.NewMockReconcileTx(ctrl)
	svc := receipt.NewService(repo)

	actingUser := uuid.New()
	id := uuid.New()

	existing := &receipt.Receipt{
		ID:      id,
		PayerID: actingUser,
		Items: []receipt.LineItem{
			{Name: "Old", Price: 100, Assigned: []uuid.UUID{p2}},
		},
		Total: 100,
	}

	repo.EXPECT().GetReceipt(gomock.Any(), id).Return(existing, nil)
	repo.EXPECT().
		UpdateReceipt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *receipt.Receipt) error {
			assert.Equal(t, int64(900), r.Total)
			return nil
		})
	repo.EXPECT().BeginReconcile(gomock.Any(), id).Return(rtx, nil)
	rtx.EXPECT().
		ReplaceDebts(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, debts []receipt.DebtRecord) error {
			require.Len(t, debts, 1)
			assert.Equal(t, int64(450), debts[0].AmountOwed)
			return nil
		})
	rtx.EXPECT().Commit().Return(nil)
	rtx.EXPECT().Rollback().Return(nil)

	_, err := svc.UpdateItems(context.Background(), id, []receipt.ItemParams{
		{Name: "Pasta", Price: 900, Assigned: []uuid.UUID{receipt.Self, p2}},
	}, actingUser)

	require.NoError(t, err)
}

func TestService_RemoveParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	rtx := receipt.NewMockReconcileTx(ctrl)
	svc := receipt.NewService(repo)

	id := uuid.New()

	existing := &receipt.Receipt{
		ID:      id,
		PayerID: p1,
		Items: []receipt.LineItem{
			{Name: "Shared", Price: 1000, Assigned: []uuid.UUID{p2, p3}},
			{Name: "Solo", Price: 400, Assigned: []uuid.UUID{p3}},
		},
		Total: 1400,
	}

	repo.EXPECT().GetReceipt(gomock.Any(), id).Return(existing, nil)
	repo.EXPECT().UpdateReceipt(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().BeginReconcile(gomock.Any(), id).Return(rtx, nil)
	rtx.EXPECT().
		ReplaceDebts(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, debts []receipt.DebtRecord) error {
			// P3 gone: P2 now owes all of the shared item, the solo item's
			// cost reverts to the payer.
			require.Len(t, debts, 1)
			assert.Equal(t, p2, debts[0].ParticipantID)
			assert.Equal(t, int64(1000), debts[0].AmountOwed)
			return nil
		})
	rtx.EXPECT().Commit().Return(nil)
	rtx.EXPECT().Rollback().Return(nil)

	_, err := svc.RemoveParticipant(context.Background(), id, p3)
	require.NoError(t, err)
}

func TestService_Delete_ClearsDebts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	rtx := receipt.NewMockReconcileTx(ctrl)
	svc := receipt.NewService(repo)

	id := uuid.New()

	repo.EXPECT().GetReceipt(gomock.Any(), id).Return(&receipt.Receipt{
		ID:      id,
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 500, Assigned: []uuid.UUID{p2}},
		},
	}, nil)
	repo.EXPECT().DeleteReceipt(gomock.Any(), id).Return(nil)
	repo.EXPECT().BeginReconcile(gomock.Any(), id).Return(rtx, nil)
	rtx.EXPECT().ReplaceDebts(gomock.Any(), id, gomock.Len(0)).Return(nil)
	rtx.EXPECT().Commit().Return(nil)
	rtx.EXPECT().Rollback().Return(nil)

	require.NoError(t, svc.Delete(context.Background(), id))
}

func TestService_Create_MirrorsExpenses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	rtx := receipt.NewMockReconcileTx(ctrl)
	mirror := receipt.NewMockExpenseMirror(ctrl)
	svc := receipt.NewService(repo)
	svc.MirrorExpenses(mirror)

	receiptID := uuid.New()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	repo.EXPECT().
		CreateReceipt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *receipt.Receipt) error {
			r.ID = receiptID
			return nil
		})
	repo.EXPECT().BeginReconcile(gomock.Any(), receiptID).Return(rtx, nil)
	rtx.EXPECT().ReplaceDebts(gomock.Any(), receiptID, gomock.Any()).Return(nil)
	rtx.EXPECT().Commit().Return(nil)
	rtx.EXPECT().Rollback().Return(nil)

	mirror.EXPECT().
		SyncReceipt(gomock.Any(), receiptID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, entries []receipt.ExpenseEntry) error {
			// Each participant's rounded share lands in the history; the
			// entry set covers the full receipt total.
			require.Len(t, entries, 2)
			assert.Equal(t, p1, entries[0].ParticipantID)
			assert.Equal(t, int64(500), entries[0].Amount)
			assert.Equal(t, p2, entries[1].ParticipantID)
			assert.Equal(t, int64(500), entries[1].Amount)
			assert.Equal(t, "Corner Market", entries[0].Merchant)
			assert.Equal(t, date, entries[0].Date)
			return nil
		})

	_, err := svc.Create(context.Background(), receipt.CreateParams{
		PayerID:  p1,
		Merchant: "Corner Market",
		Date:     date,
		Items: []receipt.ItemParams{
			{Name: "Groceries", Price: 1000, Assigned: []uuid.UUID{p1, p2}},
		},
	}, p1)

	require.NoError(t, err)
}

func TestService_Delete_ClearsMirror(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	rtx := receipt.NewMockReconcileTx(ctrl)
	mirror := receipt.NewMockExpenseMirror(ctrl)
	svc := receipt.NewService(repo)
	svc.MirrorExpenses(mirror)

	id := uuid.New()

	repo.EXPECT().GetReceipt(gomock.Any(), id).Return(&receipt.Receipt{
		ID:      id,
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 500, Assigned: []uuid.UUID{p2}},
		},
		Total: 500,
	}, nil)
	repo.EXPECT().DeleteReceipt(gomock.Any(), id).Return(nil)
	repo.EXPECT().BeginReconcile(gomock.Any(), id).Return(rtx, nil)
	rtx.EXPECT().ReplaceDebts(gomock.Any(), id, gomock.Len(0)).Return(nil)
	rtx.EXPECT().Commit().Return(nil)
	rtx.EXPECT().Rollback().Return(nil)
	mirror.EXPECT().SyncReceipt(gomock.Any(), id, gomock.Len(0)).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), id))
}

func TestService_Create_MirrorFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	rtx := receipt.NewMockReconcileTx(ctrl)
	mirror := receipt.NewMockExpenseMirror(ctrl)
	svc := receipt.NewService(repo)
	svc.MirrorExpenses(mirror)

	repo.EXPECT().
		CreateReceipt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *receipt.Receipt) error {
			r.ID = uuid.New()
			return nil
		})
	repo.EXPECT().BeginReconcile(gomock.Any(), gomock.Any()).Return(rtx, nil)
	rtx.EXPECT().ReplaceDebts(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	rtx.EXPECT().Commit().Return(nil)
	rtx.EXPECT().Rollback().Return(nil)
	mirror.EXPECT().SyncReceipt(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db error"))

	_, err := svc.Create(context.Background(), receipt.CreateParams{
		PayerID: p1,
		Items: []receipt.ItemParams{
			{Name: "Dinner", Price: 1000, Assigned: []uuid.UUID{p2}},
		},
	}, p1)

	assert.ErrorContains(t, err, "mirroring expenses")
}

func TestService_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := receipt.NewMockRepository(ctrl)
	svc := receipt.NewService(repo)

	id := uuid.New()
	repo.EXPECT().GetReceipt(gomock.Any(), id).Return(nil, receipt.ErrNotFound)

	_, err := svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, receipt.ErrNotFound)
}
