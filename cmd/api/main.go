package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/clearbooks/reconcile/internal/account"
	acctStore "github.com/clearbooks/reconcile/internal/account/store"
	"github.com/clearbooks/reconcile/internal/config"
	"github.com/clearbooks/reconcile/internal/database"
	"github.com/clearbooks/reconcile/internal/feed"
	appHttp "github.com/clearbooks/reconcile/internal/http"
	accountsHandler "github.com/clearbooks/reconcile/internal/http/accounts"
	ledgerHandler "github.com/clearbooks/reconcile/internal/http/ledgerdocs"
	reconHandler "github.com/clearbooks/reconcile/internal/http/reconciliation"
	txHandler "github.com/clearbooks/reconcile/internal/http/transactions"
	"github.com/clearbooks/reconcile/internal/ledger"
	ledgerStore "github.com/clearbooks/reconcile/internal/ledger/store"
	"github.com/clearbooks/reconcile/internal/match"
	matchStore "github.com/clearbooks/reconcile/internal/match/store"
	"github.com/clearbooks/reconcile/internal/recon"
	reconStore "github.com/clearbooks/reconcile/internal/recon/store"
	"github.com/clearbooks/reconcile/internal/split"
	splitStore "github.com/clearbooks/reconcile/internal/split/store"
	"github.com/clearbooks/reconcile/internal/suggest"
	"github.com/clearbooks/reconcile/internal/transaction"
	txStore "github.com/clearbooks/reconcile/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	engineCfg := suggest.DefaultConfig()
	engineCfg.AmountWeight = cfg.Suggest.AmountWeight
	engineCfg.DateWeight = cfg.Suggest.DateWeight
	engineCfg.TextWeight = cfg.Suggest.TextWeight
	engineCfg.DateWindowDays = cfg.Suggest.DateWindowDays
	engineCfg.MinScore = cfg.Suggest.MinScore
	engineCfg.AmountToleranceCents = cfg.Suggest.AmountToleranceCents

	var (
		accountService = account.NewService(acctStore.New(db))
		txService      = transaction.NewService(txStore.New(db))
		ledgerService  = ledger.NewService(ledgerStore.New(db))
		suggestService = suggest.NewService(suggest.NewEngine(engineCfg), ledgerService)
		reconService   = recon.NewService(reconStore.New(db), cfg.Recon.ThresholdPercent, cfg.Recon.ToleranceCents)
		matchService   = match.NewService(matchStore.New(db), ledgerService, suggestService, reconService, reconService, cfg.Recon.AutoAcceptScore)
		splitService   = split.NewService(splitStore.New(db), reconService, reconService)
		feedParser     = feed.NewParser()
	)

	var (
		accountsH = accountsHandler.NewHandler(accountService, txService, matchService, feedParser)
		txH       = txHandler.NewHandler(txService, matchService, suggestService)
		reconH    = reconHandler.NewHandler(matchService, splitService, reconService)
		ledgerH   = ledgerHandler.NewHandler(ledgerService)
	)

	router := appHttp.New(accountsH, txH, reconH, ledgerH, appHttp.Options{
		Timeout:   cfg.Server.Timeout,
		RateLimit: cfg.Server.RateLimit,
		JWTSecret: cfg.Auth.JWTSecret,
	})

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
