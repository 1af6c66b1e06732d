package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/renovalink/escrow-ledger/pkg/api"
	"github.com/renovalink/escrow-ledger/pkg/mapping"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
)

// Reader is the read surface these handlers need.
type Reader interface {
	storage.LedgerReader
	storage.AuditReader
}

// LedgerHandler holds the dependencies for ledger and audit query handlers.
type LedgerHandler struct {
	Store Reader
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store Reader) *LedgerHandler {
	return &LedgerHandler{Store: store}
}

// ListLedgerEvents handles the logic for retrieving a wallet's event history.
func (h *LedgerHandler) ListLedgerEvents(w http.ResponseWriter, r *http.Request, projectId string) {
	limit := parseLimit(r, 20)

	domainEvents, err := h.Store.ListLedgerEvents(r.Context(), projectId, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve ledger events: %v", err), http.StatusInternalServerError)
		return
	}

	apiEvents := make([]*api.LedgerEvent, len(domainEvents))
	for i, event := range domainEvents {
		apiEvents[i] = mapping.ToApiLedgerEvent(&event)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiEvents); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListAudit handles the compliance query endpoint. Exactly one of the
// target_id, actor_id or event_type query parameters selects the index.
func (h *LedgerHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)

	before := time.Time{}
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid before timestamp: %v", err), http.StatusBadRequest)
			return
		}
		before = parsed
	}

	var (
		query func(ctx context.Context, key string, limit int32, before time.Time) ([]models.AuditEntry, error)
		key   string
	)
	switch {
	case r.URL.Query().Get("target_id") != "":
		query, key = h.Store.ListAuditByTarget, r.URL.Query().Get("target_id")
	case r.URL.Query().Get("actor_id") != "":
		query, key = h.Store.ListAuditByActor, r.URL.Query().Get("actor_id")
	case r.URL.Query().Get("event_type") != "":
		query, key = h.Store.ListAuditByEventType, r.URL.Query().Get("event_type")
	default:
		http.Error(w, "One of target_id, actor_id or event_type is required", http.StatusBadRequest)
		return
	}

	domainEntries, err := query(r.Context(), key, limit, before)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve audit entries: %v", err), http.StatusInternalServerError)
		return
	}

	apiEntries := make([]*api.AuditEntry, len(domainEntries))
	for i, entry := range domainEntries {
		apiEntries[i] = mapping.ToApiAuditEntry(&entry)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiEntries); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

func parseLimit(r *http.Request, fallback int32) int32 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return int32(parsed)
}
