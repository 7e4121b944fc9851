package ledgerdocs

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clearbooks/reconcile/internal/http/api"
	"github.com/clearbooks/reconcile/internal/ledger"
)

// Handler exposes write endpoints for the match targets this service
// reconciles against. In a full deployment these rows arrive from the
// posting engine; the API lets integrations and tests seed them.
type Handler struct {
	service *ledger.Service
}

func NewHandler(service *ledger.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/journal-entries", h.createJournalEntry)
	r.Post("/documents", h.createDocument)
}

type journalEntryRequest struct {
	EntryNo string    `json:"entry_no" validate:"required"`
	Date    time.Time `json:"date" validate:"required"`
	Memo    string    `json:"memo"`
	Amount  int64     `json:"amount" validate:"required"`
}

func (h *Handler) createJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req journalEntryRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := &ledger.JournalEntry{
		EntryNo: req.EntryNo,
		Date:    req.Date,
		Memo:    req.Memo,
		Amount:  req.Amount,
	}

	if err := h.service.CreateJournalEntry(r.Context(), entry); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{"id": entry.ID})
}

type documentRequest struct {
	Name   string    `json:"name" validate:"required"`
	Date   time.Time `json:"date" validate:"required"`
	Amount int64     `json:"amount" validate:"required"`
	URL    string    `json:"url"`
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := api.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc := &ledger.Document{
		Name:   req.Name,
		Date:   req.Date,
		Amount: req.Amount,
		URL:    req.URL,
	}

	if err := h.service.CreateDocument(r.Context(), doc); err != nil {
		api.WriteDomainError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{"id": doc.ID})
}
