package forecast

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hometab/hometab/internal/forecast"
	"github.com/hometab/hometab/internal/http/middleware"
)

type Handler struct {
	svc *forecast.Service
}

func NewHandler(svc *forecast.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.report)
	r.Post("/recommendations", h.recommendations)
}

// report computes the acting participant's spending forecast on demand.
// Nothing is cached; the response reflects the history as of this request.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Forecast(r.Context(), middleware.ParticipantID(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(report); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type recommendationsRequest struct {
	MonthlyBudget int64 `json:"monthly_budget"` // cents
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.MonthlyBudget <= 0 {
		http.Error(w, "monthly_budget must be positive", http.StatusBadRequest)
		return
	}

	advice, err := h.svc.Recommend(r.Context(), middleware.ParticipantID(r.Context()), req.MonthlyBudget)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(advice); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
