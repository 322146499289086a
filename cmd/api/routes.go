package main

import (
	"net/http"

	httphandlers "centime/internal/interfaces/http"
	"centime/internal/shared/config"
	"centime/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Authenticated routes. Identity is injected by the edge gateway.
	withUser := middleware.WithUser

	mux.Handle("/api/import/preview", withUser(http.HandlerFunc(deps.ImportHandler.HandlePreview)))
	mux.Handle("/api/import/commit", withUser(http.HandlerFunc(deps.ImportHandler.HandleCommit)))
	mux.Handle("/api/accounts/", withUser(http.HandlerFunc(deps.AccountHandler.HandleListAccounts)))
	mux.Handle("/api/accounts/{id}", withUser(http.HandlerFunc(deps.AccountHandler.HandleAccountByID)))
	mux.Handle("/api/transactions/", withUser(http.HandlerFunc(deps.TransactionHandler.HandleListTransactions)))
	mux.Handle("/api/transactions/{id}", withUser(http.HandlerFunc(deps.TransactionHandler.HandleGetTransaction)))
	mux.Handle("/api/banks/", withUser(http.HandlerFunc(deps.BankHandler.HandleListBanks)))

	// Apply global middleware. Telemetry opens the server span; Tracing adds
	// the route-level child span and request metrics.
	handler := middleware.Logging(middleware.Telemetry(middleware.Tracing(middleware.CORS(cfg.Server.AllowedHosts)(mux))))

	return handler
}
