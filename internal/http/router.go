package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/clearbooks/reconcile/internal/http/accounts"
	"github.com/clearbooks/reconcile/internal/http/ledgerdocs"
	appmiddleware "github.com/clearbooks/reconcile/internal/http/middleware"
	"github.com/clearbooks/reconcile/internal/http/reconciliation"
	"github.com/clearbooks/reconcile/internal/http/transactions"
)

type Options struct {
	Timeout   time.Duration
	RateLimit int
	JWTSecret string
}

func New(
	accountsV1 *accounts.Handler,
	transactionsV1 *transactions.Handler,
	reconciliationV1 *reconciliation.Handler,
	ledgerV1 *ledgerdocs.Handler,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(opts.Timeout))
	router.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(appmiddleware.BearerAuth(opts.JWTSecret))

		// The feed endpoint takes multipart uploads, so the accounts
		// subtree is not gated on JSON content type.
		r.Route("/accounts", accountsV1.Routes)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/reconciliation", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			reconciliationV1.Routes(r)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			ledgerV1.Routes(r)
		})
	})

	return router
}
