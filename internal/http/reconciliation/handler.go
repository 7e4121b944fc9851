package reconciliation

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/http/api"
	"github.com/clearbooks/reconcile/internal/ledger"
	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/recon"
	"github.com/clearbooks/reconcile/internal/split"
	"github.com/clearbooks/reconcile/internal/transaction"
)

type Handler struct {
	matcher  *match.Service
	splitter *split.Service
	periods  *recon.Service
}

func NewHandler(matcher *match.Service, splitter *split.Service, periods *recon.Service) *Handler {
	return &Handler{matcher: matcher, splitter: splitter, periods: periods}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/match", h.match)
	r.Post("/split", h.split)
	r.Delete("/split/{id}", h.unsplit)
	r.Get("/stats", h.stats)
	r.Get("/can-finalize", h.canFinalize)
	r.Post("/finalize", h.finalize)
	r.Post("/reopen", h.reopen)
}

type matchRequest struct {
	TransactionID  *uuid.UUID `json:"txn_id"`
	AllocationID   *uuid.UUID `json:"allocation_id"`
	JournalEntryID *uuid.UUID `json:"journal_entry_id"`
	DocumentID     *uuid.UUID `json:"document_id"`
}

func (h *Handler) match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var unitRef transaction.UnitRef

	switch {
	case req.TransactionID != nil:
		unitRef = transaction.TransactionRef(*req.TransactionID)
	case req.AllocationID != nil:
		unitRef = transaction.AllocationRef(*req.AllocationID)
	default:
		api.WriteError(w, http.StatusBadRequest, "txn_id or allocation_id is required")
		return
	}

	var docRef ledger.DocumentRef

	switch {
	case req.JournalEntryID != nil:
		docRef = ledger.JournalEntryRef(*req.JournalEntryID)
	case req.DocumentID != nil:
		docRef = ledger.DocRef(*req.DocumentID)
	default:
		api.WriteError(w, http.StatusBadRequest, "journal_entry_id or document_id is required")
		return
	}

	m, err := h.matcher.Match(r.Context(), unitRef, docRef)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{
		"status":   "matched",
		"match_id": m.ID,
	})
}

type splitDTO struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type splitRequest struct {
	TransactionID uuid.UUID  `json:"txn_id" validate:"required"`
	Splits        []splitDTO `json:"splits" validate:"required,min=1"`
}

func (h *Handler) split(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	allocs := make([]split.Allocation, len(req.Splits))
	for i, s := range req.Splits {
		allocs[i] = split.Allocation{Amount: s.Amount, Description: s.Description}
	}

	created, err := h.splitter.Split(r.Context(), req.TransactionID, allocs)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	resp := make([]map[string]any, len(created))
	for i, a := range created {
		resp[i] = map[string]any{
			"id":          a.ID,
			"amount":      a.Amount,
			"description": a.Description,
			"status":      a.Status,
		}
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{
		"status":      "split",
		"allocations": resp,
	})
}

func (h *Handler) unsplit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.splitter.Unsplit(r.Context(), id); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func periodParams(r *http.Request) (uuid.UUID, int, time.Month, bool) {
	accountID, err := uuid.Parse(r.URL.Query().Get("account_id"))
	if err != nil {
		return uuid.Nil, 0, 0, false
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1970 {
		return uuid.Nil, 0, 0, false
	}

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return uuid.Nil, 0, 0, false
	}

	return accountID, year, time.Month(month), true
}

type periodSummary struct {
	Year             int    `json:"year"`
	Month            int    `json:"month"`
	ClearedCount     int    `json:"cleared_count"`
	TotalCount       int    `json:"total_count"`
	ClearedBalance   int64  `json:"cleared_balance"`
	ClearedPercent   int    `json:"cleared_percent"`
	StatementBalance *int64 `json:"statement_balance,omitempty"`
	Difference       *int64 `json:"difference,omitempty"`
	Finalized        bool   `json:"finalized"`
}

func toSummary(p *recon.Period) periodSummary {
	return periodSummary{
		Year:             p.Year,
		Month:            int(p.Month),
		ClearedCount:     p.ClearedCount,
		TotalCount:       p.TotalCount,
		ClearedBalance:   p.ClearedBalance,
		ClearedPercent:   p.ClearedPercent,
		StatementBalance: p.StatementBalance,
		Difference:       p.Difference,
		Finalized:        p.Finalized,
	}
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	accountID, year, month, ok := periodParams(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "account_id, year, and month are required")
		return
	}

	period, err := h.periods.Stats(r.Context(), accountID, year, month)
	if err != nil {
		slog.Error("reconciliation stats", "error", err, "account_id", accountID)
		api.WriteDomainError(w, err)

		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"summary": toSummary(period)})
}

func (h *Handler) canFinalize(w http.ResponseWriter, r *http.Request) {
	accountID, year, month, ok := periodParams(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "account_id, year, and month are required")
		return
	}

	elig, err := h.periods.CanFinalize(r.Context(), accountID, year, month)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	body := map[string]any{"allowed": elig.Allowed}
	if elig.Reason != "" {
		body["reason"] = elig.Reason
	}

	api.WriteJSON(w, http.StatusOK, body)
}

type finalizeRequest struct {
	AccountID        uuid.UUID `json:"account_id" validate:"required"`
	Year             int       `json:"year" validate:"required,min=1970"`
	Month            int       `json:"month" validate:"required,min=1,max=12"`
	StatementBalance int64     `json:"statement_balance"`
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	period, err := h.periods.Finalize(r.Context(), req.AccountID, req.Year, time.Month(req.Month), req.StatementBalance)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "finalized",
		"summary": toSummary(period),
	})
}

type reopenRequest struct {
	AccountID uuid.UUID `json:"account_id" validate:"required"`
	Year      int       `json:"year" validate:"required,min=1970"`
	Month     int       `json:"month" validate:"required,min=1,max=12"`
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	var req reopenRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.periods.Reopen(r.Context(), req.AccountID, req.Year, time.Month(req.Month)); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"status": "reopened"})
}
