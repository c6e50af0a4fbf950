package receipt_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hometab/hometab/internal/receipt"
)

var (
	p1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	p2 = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	p3 = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func TestComputeSplits(t *testing.T) {
	type testCase struct {
		name  string
		items []receipt.LineItem
		want  map[uuid.UUID]int64 // rounded cents, for readability
	}

	tests := []testCase{
		{
			name:  "Empty",
			items: nil,
			want:  map[uuid.UUID]int64{},
		},
		{
			name: "SingleAssignee",
			items: []receipt.LineItem{
				{Price: 500, Assigned: []uuid.UUID{p1}},
			},
			want: map[uuid.UUID]int64{p1: 500},
		},
		{
			name: "EvenSplit",
			items: []receipt.LineItem{
				{Price: 1000, Assigned: []uuid.UUID{p1, p2}},
			},
			want: map[uuid.UUID]int64{p1: 500, p2: 500},
		},
		{
			name: "UnassignedItemContributesNothing",
			items: []receipt.LineItem{
				{Price: 1000, Assigned: []uuid.UUID{p1, p2}},
				{Price: 750, Assigned: nil},
			},
			want: map[uuid.UUID]int64{p1: 500, p2: 500},
		},
		{
			name: "ExactDivisionAcrossItems",
			// Two thirds summed before rounding: 1/3 + 1/3 of 100 = 66.67,
			// not 33 + 33 = 66.
			items: []receipt.LineItem{
				{Price: 100, Assigned: []uuid.UUID{p1, p2, p3}},
				{Price: 100, Assigned: []uuid.UUID{p1, p2, p3}},
			},
			want: map[uuid.UUID]int64{p1: 67, p2: 67, p3: 67},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits := receipt.ComputeSplits(tt.items)
			assert.Len(t, splits, len(tt.want))

			for pid, cents := range tt.want {
				got, ok := splits[pid]
				require.True(t, ok, "missing participant %s", pid)
				assert.Equal(t, cents, got.Round(0).IntPart())
			}
		})
	}
}

func TestReconcile_ScenarioA(t *testing.T) {
	// Items: 10.00 split between P1 and P2, 5.00 for P1 alone, P1 pays.
	// Only P2's 5.00 is persisted; P1's own 10.00 share is implicit.
	r := &receipt.Receipt{
		ID:      uuid.New(),
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 1000, Assigned: []uuid.UUID{p1, p2}},
			{Price: 500, Assigned: []uuid.UUID{p1}},
		},
	}

	records := receipt.Reconcile(r)
	require.Len(t, records, 1)
	assert.Equal(t, p2, records[0].ParticipantID)
	assert.Equal(t, int64(500), records[0].AmountOwed)
	assert.Equal(t, p1, records[0].PayerID)
	assert.Equal(t, receipt.KindItemSplit, records[0].Kind)
	assert.False(t, records[0].IsPaid)
}

func TestReconcile_ScenarioB_RoundingRemainder(t *testing.T) {
	// 9.99 over three people is 3.33 each. P2 and P3 owe 6.66 combined;
	// with P1's implicit 3.33 that is 9.99 exactly. 10.00 over three loses
	// the odd cent to the payer.
	r := &receipt.Receipt{
		ID:      uuid.New(),
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 999, Assigned: []uuid.UUID{p1, p2, p3}},
		},
	}

	records := receipt.Reconcile(r)
	require.Len(t, records, 2)

	var persisted int64
	for _, rec := range records {
		assert.Equal(t, int64(333), rec.AmountOwed)
		persisted += rec.AmountOwed
	}

	assert.Equal(t, int64(666), persisted)
}

func TestReconcile_NoSelfDebt(t *testing.T) {
	r := &receipt.Receipt{
		ID:      uuid.New(),
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 1200, Assigned: []uuid.UUID{p1}},
			{Price: 800, Assigned: []uuid.UUID{p1, p2}},
		},
	}

	for _, rec := range receipt.Reconcile(r) {
		assert.NotEqual(t, r.PayerID, rec.ParticipantID)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	r := &receipt.Receipt{
		ID:      uuid.New(),
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 999, Assigned: []uuid.UUID{p3, p2, p1}},
			{Price: 450, Assigned: []uuid.UUID{p2}},
			{Price: 120, Assigned: nil},
		},
	}

	first := receipt.Reconcile(r)
	second := receipt.Reconcile(r)
	assert.Equal(t, first, second)
}

func TestReconcile_Conservation(t *testing.T) {
	// Persisted debts + payer's implicit share + absorbed cost must cover
	// the full receipt total, modulo discarded sub-cent remainders.
	r := &receipt.Receipt{
		ID:      uuid.New(),
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 1000, Assigned: []uuid.UUID{p1, p2, p3}},
			{Price: 2599, Assigned: []uuid.UUID{p2, p3}},
			{Price: 700, Assigned: nil}, // absorbed by payer
			{Price: 500, Assigned: []uuid.UUID{p1}},
		},
	}
	r.Total = receipt.ComputeTotal(r.Items)

	var persisted int64
	for _, rec := range receipt.Reconcile(r) {
		persisted += rec.AmountOwed
	}

	splits := receipt.ComputeSplits(r.Items)
	payerShare := splits[p1].Round(0).IntPart()
	absorbed := int64(700)

	// 1000/3 leaves a remainder below one cent per participant at most.
	assert.InDelta(t, r.Total, persisted+payerShare+absorbed, 2)
}

func TestResolveSelf(t *testing.T) {
	user := uuid.New()
	items := []receipt.LineItem{
		{Price: 100, Assigned: []uuid.UUID{receipt.Self, p2}},
		{Price: 200, Assigned: []uuid.UUID{receipt.Self}},
	}

	resolved := receipt.ResolveSelf(items, user)

	assert.Equal(t, []uuid.UUID{user, p2}, resolved[0].Assigned)
	assert.Equal(t, []uuid.UUID{user}, resolved[1].Assigned)

	// Input is left untouched.
	assert.Equal(t, receipt.Self, items[0].Assigned[0])
}

func TestRemoveParticipant(t *testing.T) {
	items := []receipt.LineItem{
		{Price: 1000, Assigned: []uuid.UUID{p1, p2}},
		{Price: 500, Assigned: []uuid.UUID{p2}},
	}

	stripped := receipt.RemoveParticipant(items, p2)

	assert.Equal(t, []uuid.UUID{p1}, stripped[0].Assigned)
	assert.Empty(t, stripped[1].Assigned)

	// The emptied item now contributes nothing.
	splits := receipt.ComputeSplits(stripped)
	assert.Equal(t, int64(1000), splits[p1].Round(0).IntPart())
	_, ok := splits[p2]
	assert.False(t, ok)
}

func TestExpenseShares(t *testing.T) {
	// 10.00 over three people: the non-payers carry the rounded 3.33 each
	// and the payer takes the remainder including the odd cent, so the
	// shares sum to the receipt total.
	r := &receipt.Receipt{
		ID:      uuid.New(),
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 1000, Assigned: []uuid.UUID{p1, p2, p3}},
		},
	}
	r.Total = receipt.ComputeTotal(r.Items)

	shares := receipt.ExpenseShares(r)
	require.Len(t, shares, 3)
	assert.Equal(t, int64(333), shares[p2])
	assert.Equal(t, int64(333), shares[p3])
	assert.Equal(t, int64(334), shares[p1])

	var sum int64
	for _, cents := range shares {
		sum += cents
	}

	assert.Equal(t, r.Total, sum)
}

func TestExpenseShares_PayerAbsorbsUnassigned(t *testing.T) {
	r := &receipt.Receipt{
		ID:      uuid.New(),
		PayerID: p1,
		Items: []receipt.LineItem{
			{Price: 1000, Assigned: []uuid.UUID{p2}},
			{Price: 700, Assigned: nil},
		},
	}
	r.Total = receipt.ComputeTotal(r.Items)

	shares := receipt.ExpenseShares(r)
	assert.Equal(t, int64(1000), shares[p2])
	assert.Equal(t, int64(700), shares[p1])
}

func TestExpenseShares_EmptyReceipt(t *testing.T) {
	r := &receipt.Receipt{ID: uuid.New(), PayerID: p1}

	assert.Empty(t, receipt.ExpenseShares(r))
}

func TestComputeTotal(t *testing.T) {
	items := []receipt.LineItem{
		{Price: 1050},
		{Price: 325},
		{Price: 0},
	}

	assert.Equal(t, int64(1375), receipt.ComputeTotal(items))
	assert.Equal(t, int64(0), receipt.ComputeTotal(nil))
}
