// Package api holds the response and validation helpers shared by the
// HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clearbooks/reconcile/internal/account"
	"github.com/clearbooks/reconcile/internal/ledger"
	"github.com/clearbooks/reconcile/internal/match"
	"github.com/clearbooks/reconcile/internal/recon"
	"github.com/clearbooks/reconcile/internal/split"
	"github.com/clearbooks/reconcile/internal/transaction"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses the JSON body into dst and runs struct validation.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}

	return validate.Struct(dst)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

// WriteError sends the error body the UI surfaces verbatim.
func WriteError(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, errorBody{Detail: detail})
}

// WriteDomainError maps a domain error onto the HTTP taxonomy. Unknown
// errors become opaque 500s; domain errors keep their message as the
// detail so the UI can render a specific reason.
func WriteDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, match.ErrAlreadyMatched),
		errors.Is(err, match.ErrNotMatched),
		errors.Is(err, match.ErrTransactionSplit),
		errors.Is(err, match.ErrConflict),
		errors.Is(err, split.ErrSplitsStillMatched),
		errors.Is(err, split.ErrNotSplit),
		errors.Is(err, recon.ErrNotEligible),
		errors.Is(err, recon.ErrPeriodFinalized),
		errors.Is(err, recon.ErrNotFinalized):
		status = http.StatusConflict
	case errors.Is(err, split.ErrInvalidSplit):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		WriteError(w, status, "internal error")
		return
	}

	WriteError(w, status, err.Error())
}
