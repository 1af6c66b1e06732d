package quotes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/renovalink/escrow-ledger/pkg/api"
	"github.com/renovalink/escrow-ledger/pkg/mapping"
	"github.com/renovalink/escrow-ledger/pkg/reconcile"
	"github.com/renovalink/escrow-ledger/pkg/storage"
)

// QuotesHandler holds the dependencies for quote revision handlers.
type QuotesHandler struct {
	Reconciler *reconcile.Reconciler
	Logger     *slog.Logger
}

// NewQuotesHandler creates a new QuotesHandler.
func NewQuotesHandler(reconciler *reconcile.Reconciler, logger *slog.Logger) *QuotesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotesHandler{Reconciler: reconciler, Logger: logger}
}

// CreateRevision handles the logic for recording a quote revision and running
// the top-up and under-payment checks against the project's escrow wallet.
func (h *QuotesHandler) CreateRevision(w http.ResponseWriter, r *http.Request, quoteId string) {
	var newRevision api.NewRevision
	if err := json.NewDecoder(r.Body).Decode(&newRevision); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	input, err := mapping.ToRevisionInput(&newRevision)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Reconciler.CreateRevision(r.Context(), quoteId, input)
	if err != nil {
		if errors.Is(err, storage.ErrQuoteNotFound) {
			http.Error(w, "Quote not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to create revision: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(mapping.ToApiRevision(result)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetSigningGate handles the logic for evaluating whether a contract for the
// given quote may be sent for signing. The gate fails open: if a check cannot
// be evaluated the response still allows signing, and the skipped check is
// logged for operator follow-up.
func (h *QuotesHandler) GetSigningGate(w http.ResponseWriter, r *http.Request, quoteId string) {
	gate, err := h.Reconciler.CheckContractSigningBlock(r.Context(), quoteId)
	if err != nil {
		if errors.Is(err, storage.ErrQuoteNotFound) {
			http.Error(w, "Quote not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("signing gate evaluation failed open", "quoteId", quoteId, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(mapping.ToApiSigningGate(gate)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
