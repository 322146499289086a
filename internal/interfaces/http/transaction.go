package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"centime/internal/domain/account"
	"centime/internal/domain/transaction"
	"centime/internal/shared/middleware"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
)

type TransactionHandler struct {
	accountService *account.Service
	transactions   transaction.Repository
}

func NewTransactionHandler(accountService *account.Service, transactions transaction.Repository) *TransactionHandler {
	return &TransactionHandler{
		accountService: accountService,
		transactions:   transactions,
	}
}

// HandleListTransactions returns transactions for one of the caller's
// accounts, newest first, with limit/offset pagination.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		http.Error(w, "accountId is required", http.StatusBadRequest)
		return
	}

	// Ownership check before exposing any transaction data.
	if _, err := h.accountService.GetAccount(r.Context(), accountID, userID); err != nil {
		switch {
		case errors.Is(err, account.ErrAccountNotFound):
			http.Error(w, "Account not found", http.StatusNotFound)
		case errors.Is(err, account.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			log.Printf("Error resolving account %s: %v", accountID, err)
			http.Error(w, "Failed to resolve account", http.StatusInternalServerError)
		}
		return
	}

	limit := queryInt(r, "limit", defaultTransactionLimit)
	if limit <= 0 || limit > maxTransactionLimit {
		limit = defaultTransactionLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	transactions, err := h.transactions.ListByAccountID(r.Context(), accountID, limit, offset)
	if err != nil {
		log.Printf("Error listing transactions for account %s: %v", accountID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []*transaction.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

// HandleGetTransaction returns a single transaction. The owning account is
// resolved first so a caller can never read another user's transaction.
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return
	}

	txn, err := h.transactions.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		log.Printf("Error fetching transaction %s: %v", id, err)
		http.Error(w, "Failed to fetch transaction", http.StatusInternalServerError)
		return
	}

	if _, err := h.accountService.GetAccount(r.Context(), txn.AccountID, userID); err != nil {
		switch {
		case errors.Is(err, account.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, account.ErrAccountNotFound):
			http.Error(w, "Transaction not found", http.StatusNotFound)
		default:
			log.Printf("Error resolving account %s: %v", txn.AccountID, err)
			http.Error(w, "Failed to resolve account", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txn)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
