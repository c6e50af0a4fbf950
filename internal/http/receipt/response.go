package receipt

import (
	"time"

	"github.com/google/uuid"

	"github.com/hometab/hometab/internal/receipt"
)

type lineItemResponse struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Price    int64       `json:"price"`
	Assigned []uuid.UUID `json:"assigned"`
}

type receiptResponse struct {
	ID        uuid.UUID          `json:"id"`
	PayerID   uuid.UUID          `json:"payer_id"`
	Merchant  string             `json:"merchant"`
	Date      time.Time          `json:"date"`
	Items     []lineItemResponse `json:"items"`
	Total     int64              `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

type debtRecordResponse struct {
	ReceiptID     uuid.UUID `json:"receipt_id"`
	PayerID       uuid.UUID `json:"payer_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	AmountOwed    int64     `json:"amount_owed"`
	Kind          string    `json:"kind"`
	IsPaid        bool      `json:"is_paid"`
}

type summaryResponse struct {
	ParticipantID uuid.UUID            `json:"participant_id"`
	TotalOwed     int64                `json:"total_owed"`
	TotalOwedTo   int64                `json:"total_owed_to"`
	OpenDebts     []debtRecordResponse `json:"open_debts"`
}

func toResponse(r *receipt.Receipt) receiptResponse {
	items := make([]lineItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = lineItemResponse{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Assigned: item.Assigned,
		}
	}

	return receiptResponse{
		ID:        r.ID,
		PayerID:   r.PayerID,
		Merchant:  r.Merchant,
		Date:      r.Date,
		Items:     items,
		Total:     r.Total,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toResponseList(receipts []*receipt.Receipt) []receiptResponse {
	resp := make([]receiptResponse, len(receipts))
	for i, r := range receipts {
		resp[i] = toResponse(r)
	}

	return resp
}

func toDebtResponse(d receipt.DebtRecord) debtRecordResponse {
	return debtRecordResponse{
		ReceiptID:     d.ReceiptID,
		PayerID:       d.PayerID,
		ParticipantID: d.ParticipantID,
		AmountOwed:    d.AmountOwed,
		Kind:          string(d.Kind),
		IsPaid:        d.IsPaid,
	}
}

func toDebtResponseList(debts []receipt.DebtRecord) []debtRecordResponse {
	resp := make([]debtRecordResponse, len(debts))
	for i, d := range debts {
		resp[i] = toDebtResponse(d)
	}

	return resp
}

func toSummaryResponse(s *receipt.Summary) summaryResponse {
	return summaryResponse{
		ParticipantID: s.ParticipantID,
		TotalOwed:     s.TotalOwed,
		TotalOwedTo:   s.TotalOwedTo,
		OpenDebts:     toDebtResponseList(s.OpenDebts),
	}
}
