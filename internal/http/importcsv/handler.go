package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hometab/hometab/internal/category"
	"github.com/hometab/hometab/internal/expense"
	"github.com/hometab/hometab/internal/http/middleware"
	"github.com/hometab/hometab/internal/importer"
	"github.com/hometab/hometab/internal/merchant"
)

type Handler struct {
	importSvc   *importer.Service
	expenseSvc  *expense.Service
	merchantSvc *merchant.Service
}

func NewHandler(importSvc *importer.Service, expenseSvc *expense.Service, merchantSvc *merchant.Service) *Handler {
	return &Handler{
		importSvc:   importSvc,
		expenseSvc:  expenseSvc,
		merchantSvc: merchantSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type expenseResponse struct {
	ID            uuid.UUID         `json:"id"`
	ParticipantID uuid.UUID         `json:"participant_id"`
	Merchant      string            `json:"merchant"`
	Category      category.Category `json:"category"`
	Amount        int64             `json:"amount"`
	Date          time.Time         `json:"date"`
	CreatedAt     time.Time         `json:"created_at"`
}

type importSuccessResponse struct {
	Imported int               `json:"imported"`
	Expenses []expenseResponse `json:"expenses"`
}

type createParamsDTO struct {
	Merchant string            `json:"merchant"`
	Category category.Category `json:"category"`
	Amount   int64             `json:"amount"`
	Date     time.Time         `json:"date"`
}

type conflictDTO struct {
	Incoming createParamsDTO `json:"incoming"`
	Existing expenseResponse `json:"existing"`
}

type importConflictResponse struct {
	New       []createParamsDTO `json:"new"`
	Conflicts []conflictDTO     `json:"conflicts"`
}

type confirmRequest struct {
	Params []createParamsDTO `json:"params"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	source := importer.Source(r.FormValue("source"))
	if source == "" {
		http.Error(w, "source field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(source, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	participantID := middleware.ParticipantID(r.Context())

	for i, p := range params {
		params[i].ParticipantID = participantID

		suggested, err := h.merchantSvc.Suggest(r.Context(), p.Merchant)
		if err != nil {
			continue
		}

		params[i].Category = suggested
	}

	result, err := h.expenseSvc.ImportBatch(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]createParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: toExpenseResponse(c.Existing),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode response", "error", err)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toSuccessResponse(result.Imported)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	participantID := middleware.ParticipantID(r.Context())

	params := make([]expense.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, expense.CreateParams{
			ParticipantID: participantID,
			Merchant:      p.Merchant,
			Category:      p.Category,
			Amount:        p.Amount,
			Date:          p.Date,
		})
	}

	expenses, err := h.expenseSvc.CreateBatch(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toSuccessResponse(expenses)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toSuccessResponse(expenses []*expense.Expense) importSuccessResponse {
	responses := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		responses = append(responses, toExpenseResponse(e))
	}

	return importSuccessResponse{
		Imported: len(expenses),
		Expenses: responses,
	}
}

func toExpenseResponse(e *expense.Expense) expenseResponse {
	return expenseResponse{
		ID:            e.ID,
		ParticipantID: e.ParticipantID,
		Merchant:      e.Merchant,
		Category:      e.Category,
		Amount:        e.Amount,
		Date:          e.Date,
		CreatedAt:     e.CreatedAt,
	}
}

func toParamsDTO(p expense.CreateParams) createParamsDTO {
	return createParamsDTO{
		Merchant: p.Merchant,
		Category: p.Category,
		Amount:   p.Amount,
		Date:     p.Date,
	}
}
