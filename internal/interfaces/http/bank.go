package http

import (
	"encoding/json"
	"log"
	"net/http"

	"centime/internal/domain/bank"
	"centime/internal/shared/middleware"
)

type BankHandler struct {
	banks bank.Repository
}

func NewBankHandler(banks bank.Repository) *BankHandler {
	return &BankHandler{banks: banks}
}

// HandleListBanks returns the banks the caller holds accounts with.
func (h *BankHandler) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	banks, err := h.banks.ListByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing banks for user %d: %v", userID, err)
		http.Error(w, "Failed to list banks", http.StatusInternalServerError)
		return
	}
	if banks == nil {
		banks = []*bank.Bank{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(banks)
}
