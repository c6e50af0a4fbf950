package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hometab/hometab/internal/expense"
	"github.com/hometab/hometab/internal/export"
	"github.com/hometab/hometab/internal/http/middleware"
	"github.com/hometab/hometab/internal/receipt"
)

type Handler struct {
	svc      *export.Service
	receipts *receipt.Service
}

func NewHandler(svc *export.Service, receipts *receipt.Service) *Handler {
	return &Handler{svc: svc, receipts: receipts}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/csv", h.downloadCSV)
	r.Post("/settle-up", h.settleUp)
}

type exportRequest struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func (h *Handler) downloadCSV(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	participantID := middleware.ParticipantID(r.Context())

	filter := expense.ListFilter{
		ParticipantID: &participantID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}

	// Buffer the file so a mid-export failure does not send a truncated
	// response with a 200 status.
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(r.Context(), filter, &buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"expenses_%s.csv\"", time.Now().Format("20060102")))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write csv response", "error", err)
	}
}

type settleUpRequest struct {
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

type settleUpResponse struct {
	Body string `json:"body"`
}

// settleUp renders a plain-text digest of each named participant's debt
// position, suitable for pasting into the household chat.
func (h *Handler) settleUp(w http.ResponseWriter, r *http.Request) {
	var req settleUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.ParticipantIDs) == 0 {
		http.Error(w, "participant_ids is required", http.StatusBadRequest)
		return
	}

	summaries := make([]*receipt.Summary, 0, len(req.ParticipantIDs))

	for _, id := range req.ParticipantIDs {
		sum, err := h.receipts.Summary(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		summaries = append(summaries, sum)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(settleUpResponse{
		Body: h.svc.SettleUpBody(summaries),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
