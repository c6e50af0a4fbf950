package receipt

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResolveSelf replaces the synthetic Self participant id with the acting
// user's persistent id across every item's assignment set. The mapping is a
// pure function of the item list and is applied uniformly, so a receipt can
// never end up with some items assigned to Self and others to the resolved
// identity.
func ResolveSelf(items []LineItem, userID uuid.UUID) []LineItem {
	resolved := make([]LineItem, len(items))

	for i, item := range items {
		resolved[i] = item
		resolved[i].Assigned = make([]uuid.UUID, len(item.Assigned))

		for j, pid := range item.Assigned {
			if pid == Self {
				pid = userID
			}

			resolved[i].Assigned[j] = pid
		}
	}

	return resolved
}

// ComputeSplits returns each participant's share of the receipt, in cents,
// as exact decimals. An item assigned to k participants contributes
// price/k to each of them; an item with no assignments contributes nothing
// and its cost stays with the payer. No rounding happens here so that
// division error cannot compound across items.
func ComputeSplits(items []LineItem) map[uuid.UUID]decimal.Decimal {
	splits := make(map[uuid.UUID]decimal.Decimal)

	for _, item := range items {
		k := len(item.Assigned)
		if k == 0 {
			continue
		}

		share := decimal.NewFromInt(item.Price).Div(decimal.NewFromInt(int64(k)))
		for _, pid := range item.Assigned {
			splits[pid] = splits[pid].Add(share)
		}
	}

	return splits
}

// Reconcile turns a receipt's item assignments into its full debt record
// set. The payer's own share is dropped, shares are rounded to whole cents
// at this boundary only, and zero-amount records are not emitted. Output
// order is deterministic (by participant id) so repeated runs over the same
// receipt produce identical sets.
//
// Sub-cent remainders from uneven divisions are discarded rather than
// redistributed: 10.00 over three people yields 3.33 each and the odd cent
// stays with the payer.
func Reconcile(r *Receipt) []DebtRecord {
	splits := ComputeSplits(r.Items)

	records := make([]DebtRecord, 0, len(splits))

	for pid, share := range splits {
		if pid == r.PayerID {
			continue
		}

		cents := share.Round(0).IntPart()
		if cents <= 0 {
			continue
		}

		records = append(records, DebtRecord{
			ReceiptID:     r.ID,
			PayerID:       r.PayerID,
			ParticipantID: pid,
			AmountOwed:    cents,
			Kind:          KindItemSplit,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ParticipantID.String() < records[j].ParticipantID.String()
	})

	return records
}

// ExpenseShares apportions the receipt total into per-participant spending
// amounts, rounding each non-payer share exactly as Reconcile does. The
// payer takes the remainder, which covers unassigned items, their own
// shares, and sub-cent leftovers, so the amounts always sum to the receipt
// total.
func ExpenseShares(r *Receipt) map[uuid.UUID]int64 {
	splits := ComputeSplits(r.Items)

	shares := make(map[uuid.UUID]int64, len(splits)+1)

	var others int64

	for pid, share := range splits {
		if pid == r.PayerID {
			continue
		}

		cents := share.Round(0).IntPart()
		if cents <= 0 {
			continue
		}

		shares[pid] = cents
		others += cents
	}

	if payer := r.Total - others; payer > 0 {
		shares[r.PayerID] = payer
	}

	return shares
}

// RemoveParticipant strips a participant from every item's assignment set.
// Items whose set becomes empty fall back to payer absorption, the same as
// items that were never assigned.
func RemoveParticipant(items []LineItem, participantID uuid.UUID) []LineItem {
	result := make([]LineItem, len(items))

	for i, item := range items {
		result[i] = item
		result[i].Assigned = make([]uuid.UUID, 0, len(item.Assigned))

		for _, pid := range item.Assigned {
			if pid == participantID {
				continue
			}

			result[i].Assigned = append(result[i].Assigned, pid)
		}
	}

	return result
}
