package accounts

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clearbooks/reconcile/internal/account"
	"github.com/clearbooks/reconcile/internal/feed"
	"github.com/clearbooks/reconcile/internal/http/api"
	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/transaction"
)

type Handler struct {
	accounts *account.Service
	txns     *transaction.Service
	matcher  *match.Service
	parser   *feed.Parser
}

func NewHandler(accounts *account.Service, txns *transaction.Service, matcher *match.Service, parser *feed.Parser) *Handler {
	return &Handler{accounts: accounts, txns: txns, matcher: matcher, parser: parser}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.deactivate)
	r.Post("/{id}/sync", h.sync)
	r.Post("/{id}/feed", h.uploadFeed)
	r.Post("/{id}/auto-match", h.autoMatch)
}

type accountResponse struct {
	ID                  uuid.UUID  `json:"id"`
	EntityID            uuid.UUID  `json:"entity_id"`
	BankName            string     `json:"bank_name"`
	AccountNumberMasked string     `json:"account_number_masked"`
	Currency            string     `json:"currency"`
	CurrentBalance      int64      `json:"current_balance"`
	Active              bool       `json:"active"`
	LastSyncedAt        *time.Time `json:"last_synced_at,omitempty"`
	LastSyncStatus      string     `json:"last_sync_status,omitempty"`
}

func toResponse(a *account.Account) accountResponse {
	return accountResponse{
		ID:                  a.ID,
		EntityID:            a.EntityID,
		BankName:            a.BankName,
		AccountNumberMasked: a.AccountNumberMasked,
		Currency:            a.Currency,
		CurrentBalance:      a.CurrentBalance,
		Active:              a.Active,
		LastSyncedAt:        a.LastSyncedAt,
		LastSyncStatus:      a.LastSyncStatus,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var entityID *uuid.UUID

	if s := r.URL.Query().Get("entity_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "invalid entity_id")
			return
		}

		entityID = &id
	}

	accounts, err := h.accounts.List(r.Context(), entityID)
	if err != nil {
		slog.Error("list accounts", "error", err)
		api.WriteDomainError(w, err)

		return
	}

	resp := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		resp[i] = toResponse(a)
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"accounts": resp})
}

type createAccountRequest struct {
	EntityID            uuid.UUID `json:"entity_id" validate:"required"`
	BankName            string    `json:"bank_name" validate:"required"`
	AccountNumberMasked string    `json:"account_number_masked" validate:"required"`
	Currency            string    `json:"currency" validate:"required,len=3"`
	CurrentBalance      int64     `json:"current_balance"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	acct, err := h.accounts.Create(r.Context(), account.CreateParams{
		EntityID:            req.EntityID,
		BankName:            req.BankName,
		AccountNumberMasked: req.AccountNumberMasked,
		Currency:            req.Currency,
		CurrentBalance:      req.CurrentBalance,
	})
	if err != nil {
		slog.Error("create account", "error", err)
		api.WriteDomainError(w, err)

		return
	}

	api.WriteJSON(w, http.StatusCreated, toResponse(acct))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	acct, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		api.WriteDomainError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, toResponse(acct))
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.accounts.Deactivate(r.Context(), id); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type syncRowDTO struct {
	ExternalID       string    `json:"external_id"`
	Date             time.Time `json:"date"`
	Description      string    `json:"description"`
	Merchant         string    `json:"merchant,omitempty"`
	Category         string    `json:"category,omitempty"`
	Amount           *int64    `json:"amount"`
	SuggestedAccount string    `json:"suggested_account,omitempty"`
	SuggestedScore   float64   `json:"suggested_score,omitempty"`
}

type syncRequest struct {
	Transactions []syncRowDTO `json:"transactions" validate:"required"`
}

type importResponse struct {
	Message  string       `json:"message"`
	Imported int          `json:"imported_count"`
	Skipped  []skippedDTO `json:"skipped,omitempty"`
}

type skippedDTO struct {
	ExternalID string `json:"external_id,omitempty"`
	Reason     string `json:"reason"`
}

// sync imports raw feed rows pushed by the bank integration. Malformed
// rows are reported as skipped; a non-array payload fails the call.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req syncRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.accounts.Get(r.Context(), id); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	rows := make([]transaction.ImportRow, len(req.Transactions))
	for i, dto := range req.Transactions {
		rows[i] = transaction.ImportRow{
			ExternalID:       dto.ExternalID,
			Date:             dto.Date,
			Description:      dto.Description,
			Merchant:         dto.Merchant,
			Category:         dto.Category,
			Amount:           dto.Amount,
			SuggestedAccount: dto.SuggestedAccount,
			SuggestedScore:   dto.SuggestedScore,
		}
	}

	h.runImport(w, r, id, rows)
}

// uploadFeed ingests a CSV bank export through the same import path.
func (h *Handler) uploadFeed(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		api.WriteError(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if _, err := h.accounts.Get(r.Context(), id); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	rows, err := h.parser.Parse(file)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.runImport(w, r, id, rows)
}

func (h *Handler) runImport(w http.ResponseWriter, r *http.Request, accountID uuid.UUID, rows []transaction.ImportRow) {
	result, err := h.txns.ImportBatch(r.Context(), accountID, rows)
	if err != nil {
		slog.Error("import transactions", "error", err, "account_id", accountID)
		api.WriteDomainError(w, err)

		return
	}

	resp := importResponse{
		Message:  fmt.Sprintf("imported %d transactions, skipped %d", result.Imported, len(result.Skipped)),
		Imported: result.Imported,
	}

	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, skippedDTO{ExternalID: s.ExternalID, Reason: s.Reason})
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) autoMatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if _, err := h.accounts.Get(r.Context(), id); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	result, err := h.matcher.AutoMatch(r.Context(), id)
	if err != nil {
		slog.Error("auto-match", "error", err, "account_id", id)
		api.WriteDomainError(w, err)

		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("matched %d transactions, skipped %d", result.MatchedCount, result.Skipped),
		"matched_count": result.MatchedCount,
		"skipped":       result.Skipped,
	})
}
