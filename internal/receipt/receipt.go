package receipt

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("receipt not found")

// Self is the synthetic participant id used by clients for "me" before the
// acting user's persistent identity is known. It is resolved exactly once
// per save, see ResolveSelf.
var Self = uuid.Nil

// LineItem is a single priced line on a receipt, assigned to zero or more
// participants.
type LineItem struct {
	ID       uuid.UUID
	Name     string
	Price    int64 // Price in cents
	Assigned []uuid.UUID
}

// Participant is a person who can be assigned to line items.
type Participant struct {
	ID           uuid.UUID
	DisplayLabel string
}

// Receipt is a single purchase paid in full by one payer.
type Receipt struct {
	ID        uuid.UUID
	PayerID   uuid.UUID
	Merchant  string
	Date      time.Time
	Items     []LineItem
	Total     int64 // Sum of item prices in cents, recomputed on every item change
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}

// Kind classifies how a debt record was produced.
type Kind string

const (
	// KindItemSplit is a debt derived from per-item participant assignments.
	KindItemSplit Kind = "item_split"
)

// DebtRecord states that a participant owes the payer a specific amount for
// a specific receipt. Records exist only for participants other than the
// payer and only for amounts greater than zero.
type DebtRecord struct {
	ReceiptID     uuid.UUID
	PayerID       uuid.UUID
	ParticipantID uuid.UUID
	AmountOwed    int64 // Cents, rounded only at this boundary
	Kind          Kind
	IsPaid        bool
}

// ComputeTotal returns the sum of all item prices. Stored totals are never
// trusted for display; callers recompute through this whenever items change.
func ComputeTotal(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Price
	}

	return total
}
