package transactions

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/http/api"
	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/suggest"
	"github.com/clearbooks/reconcile/internal/transaction"
)

type Handler struct {
	txns      *transaction.Service
	matcher   *match.Service
	suggester *suggest.Service
}

func NewHandler(txns *transaction.Service, matcher *match.Service, suggester *suggest.Service) *Handler {
	return &Handler{txns: txns, matcher: matcher, suggester: suggester}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)
	r.Get("/{id}/suggestions", h.suggestions)
	r.Delete("/{id}/match", h.unmatch)
	r.Get("/allocations/{id}/suggestions", h.allocationSuggestions)
	r.Delete("/allocations/{id}/match", h.unmatchAllocation)
}

type transactionResponse struct {
	ID               uuid.UUID            `json:"id"`
	AccountID        uuid.UUID            `json:"account_id"`
	ExternalID       string               `json:"external_id"`
	Date             time.Time            `json:"date"`
	Description      string               `json:"description"`
	Merchant         string               `json:"merchant,omitempty"`
	Category         string               `json:"category,omitempty"`
	Amount           int64                `json:"amount"`
	Status           transaction.Status   `json:"status"`
	SuggestedAccount string               `json:"suggested_account,omitempty"`
	SuggestedScore   float64              `json:"suggested_score,omitempty"`
	Allocations      []allocationResponse `json:"allocations,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        *time.Time           `json:"updated_at,omitempty"`
}

type allocationResponse struct {
	ID          uuid.UUID          `json:"id"`
	Amount      int64              `json:"amount"`
	Description string             `json:"description"`
	Status      transaction.Status `json:"status"`
}

func toResponse(tx *transaction.BankTransaction) transactionResponse {
	return transactionResponse{
		ID:               tx.ID,
		AccountID:        tx.AccountID,
		ExternalID:       tx.ExternalID,
		Date:             tx.Date,
		Description:      tx.Description,
		Merchant:         tx.Merchant,
		Category:         tx.Category,
		Amount:           tx.Amount,
		Status:           tx.Status,
		SuggestedAccount: tx.SuggestedAccount,
		SuggestedScore:   tx.SuggestedScore,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.URL.Query().Get("account_id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	filter := transaction.ListFilter{AccountID: accountID}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(transaction.Status(s))
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = new(t)
		}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = new(t)
		}
	}

	txs, err := h.txns.List(r.Context(), filter)
	if err != nil {
		slog.Error("list transactions", "error", err, "account_id", accountID)
		api.WriteDomainError(w, err)

		return
	}

	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"transactions": resp})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.URL.Query().Get("account_id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	stats, err := h.txns.Stats(r.Context(), accountID)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"total":              stats.Total,
		"matched":            stats.Matched,
		"unmatched":          stats.Unmatched,
		"match_rate_percent": stats.MatchRatePercent,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	tx, err := h.txns.Get(r.Context(), id)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	resp := toResponse(tx)

	if tx.Status == transaction.StatusSplit {
		allocs, err := h.txns.Allocations(r.Context(), id)
		if err != nil {
			api.WriteDomainError(w, err)
			return
		}

		for _, a := range allocs {
			resp.Allocations = append(resp.Allocations, allocationResponse{
				ID: a.ID, Amount: a.Amount, Description: a.Description, Status: a.Status,
			})
		}
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

type candidateDTO struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	Amount     int64     `json:"amount"`
	Date       time.Time `json:"date"`
	Descriptor string    `json:"descriptor"`
	Score      float64   `json:"confidence_score"`
}

func toCandidates(scored []suggest.Scored) []candidateDTO {
	out := make([]candidateDTO, len(scored))
	for i, sc := range scored {
		out[i] = candidateDTO{
			ID:         sc.Ref.ID,
			Kind:       string(sc.Ref.Kind),
			Amount:     sc.Amount,
			Date:       sc.Date,
			Descriptor: sc.Descriptor,
			Score:      sc.Score,
		}
	}

	return out
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.suggestFor(w, r, transaction.TransactionRef(id))
}

func (h *Handler) allocationSuggestions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.suggestFor(w, r, transaction.AllocationRef(id))
}

func (h *Handler) suggestFor(w http.ResponseWriter, r *http.Request, ref transaction.UnitRef) {
	unit, err := h.matcher.Unit(r.Context(), ref)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	if unit.Status == transaction.StatusSplit {
		api.WriteDomainError(w, match.ErrTransactionSplit)
		return
	}

	result, err := h.suggester.Suggest(r.Context(), suggest.Target{
		Amount:     unit.Amount,
		Date:       unit.Date,
		Descriptor: unit.Descriptor,
	})
	if err != nil {
		slog.Error("suggest", "error", err, "unit_id", ref.ID)
		api.WriteDomainError(w, err)

		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"documents":       toCandidates(result.Documents),
		"journal_entries": toCandidates(result.JournalEntries),
	})
}

func (h *Handler) unmatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.unmatchUnit(w, r, transaction.TransactionRef(id))
}

func (h *Handler) unmatchAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.unmatchUnit(w, r, transaction.AllocationRef(id))
}

func (h *Handler) unmatchUnit(w http.ResponseWriter, r *http.Request, ref transaction.UnitRef) {
	if err := h.matcher.Unmatch(r.Context(), ref); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
