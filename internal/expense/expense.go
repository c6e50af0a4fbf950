package expense

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hometab/hometab/internal/category"
)

var ErrNotFound = errors.New("expense not found")

// Expense is a single categorized outflow in a participant's spending
// history. Receipts saved through the split ledger mirror into expenses so
// the forecast can read one uniform series.
type Expense struct {
	ID            uuid.UUID
	ParticipantID uuid.UUID
	// ReceiptID links an entry mirrored from the split ledger back to its
	// receipt. Directly entered and imported expenses leave it nil.
	ReceiptID *uuid.UUID
	Merchant  string
	Category      category.Category
	Amount        int64 // Amount in cents
	Date          time.Time
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
}

// Month returns the expense's calendar month key, e.g. "2026-03".
func (e *Expense) Month() string {
	return e.Date.Format("2006-01")
}
