package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"centime/internal/domain/bank"
	"centime/internal/domain/importer"
	"centime/internal/shared/middleware"
	"centime/internal/statement"
)

// ImportHandler exposes the two-phase statement import over HTTP.
type ImportHandler struct {
	importService  *importer.Service
	banks          bank.Repository
	maxUploadBytes int64
}

func NewImportHandler(importService *importer.Service, banks bank.Repository, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{
		importService:  importService,
		banks:          banks,
		maxUploadBytes: maxUploadBytes,
	}
}

// CommitRequest echoes a (possibly edited) preview back for persistence.
type CommitRequest struct {
	BankID   string           `json:"bankId"`
	FileName string           `json:"fileName"`
	Preview  importer.Preview `json:"preview"`
}

// HandlePreview accepts a multipart upload (file, bankId or bankName,
// optional accountId) and returns the import preview. Nothing is persisted.
func (h *ImportHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "Invalid or oversized upload", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Statement file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	bankID, err := h.resolveBank(r)
	if err != nil {
		if errors.Is(err, bank.ErrBankNotFound) {
			http.Error(w, "Bank not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	preview, err := h.importService.Preview(r.Context(), importer.PreviewInput{
		UserID:          userID,
		BankID:          bankID,
		FileName:        header.Filename,
		Data:            data,
		TargetAccountID: r.FormValue("accountId"),
	})
	if err != nil {
		writePreviewError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(preview)
}

// HandleCommit persists a confirmed preview atomically.
func (h *ImportHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.BankID == "" {
		http.Error(w, "bankId is required", http.StatusBadRequest)
		return
	}

	if _, err := h.banks.GetByID(r.Context(), req.BankID); err != nil {
		if errors.Is(err, bank.ErrBankNotFound) {
			http.Error(w, "Bank not found", http.StatusNotFound)
			return
		}
		log.Printf("Error resolving bank %s: %v", req.BankID, err)
		http.Error(w, "Failed to resolve bank", http.StatusInternalServerError)
		return
	}

	result, err := h.importService.Commit(r.Context(), importer.CommitInput{
		UserID:   userID,
		BankID:   req.BankID,
		FileName: req.FileName,
		Preview:  req.Preview,
	})
	if err != nil {
		if errors.Is(err, importer.ErrEmptyPreview) || errors.Is(err, importer.ErrUnmappedAccount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error committing import for user %d: %v", userID, err)
		http.Error(w, "Failed to commit import", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// resolveBank accepts either a bankId referencing an existing bank or a
// bankName resolved (and created on first use) by name.
func (h *ImportHandler) resolveBank(r *http.Request) (string, error) {
	if bankID := r.FormValue("bankId"); bankID != "" {
		b, err := h.banks.GetByID(r.Context(), bankID)
		if err != nil {
			return "", err
		}
		return b.ID, nil
	}

	if bankName := r.FormValue("bankName"); bankName != "" {
		b, err := h.banks.FindOrCreateByName(r.Context(), bankName)
		if err != nil {
			return "", err
		}
		return b.ID, nil
	}

	return "", errors.New("bankId or bankName is required")
}

// writePreviewError maps parse failures onto client-visible statuses:
// unsupported format and empty file are bad requests, a readable but
// structurally incompatible file is unprocessable.
func writePreviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, importer.ErrEmptyFile), errors.Is(err, statement.ErrUnsupportedExtension):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case statement.IsParseError(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Printf("Error building import preview: %v", err)
		http.Error(w, "Failed to build import preview", http.StatusInternalServerError)
	}
}
