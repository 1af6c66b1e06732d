package webhooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/renovalink/escrow-ledger/pkg/api"
	"github.com/renovalink/escrow-ledger/pkg/webhooks"
)

const (
	// HeaderSignature carries the hex HMAC-SHA256 of the raw request body.
	HeaderSignature = "X-Webhook-Signature"
	// HeaderProvider names the sending payment provider.
	HeaderProvider = "X-Webhook-Provider"

	maxBodyBytes = 1 << 20
)

// WebhooksHandler holds the dependencies for inbound webhook handlers.
type WebhooksHandler struct {
	Ingestor *webhooks.Ingestor
	Esign    *webhooks.EsignProcessor
}

// NewWebhooksHandler creates a new WebhooksHandler.
func NewWebhooksHandler(ingestor *webhooks.Ingestor, esign *webhooks.EsignProcessor) *WebhooksHandler {
	return &WebhooksHandler{Ingestor: ingestor, Esign: esign}
}

// HandleDeposit receives deposit notifications from the payment provider.
// Signature and structural failures are rejected; everything past that point
// is acknowledged with 200 regardless of the internal outcome, so the
// provider never retries deliveries we have already recorded.
func (h *WebhooksHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read request body: %v", err), http.StatusBadRequest)
		return
	}

	provider := r.Header.Get(HeaderProvider)
	if provider == "" {
		provider = "escrow"
	}

	result := h.Ingestor.IngestDeposit(r.Context(), provider, body, r.Header.Get(HeaderSignature))

	if result.State == webhooks.StateRejected {
		if errors.Is(result.Err, webhooks.ErrInvalidSignature) {
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		http.Error(w, fmt.Sprintf("Invalid payload: %v", result.Err), http.StatusBadRequest)
		return
	}

	ack := api.WebhookAck{
		Received:  true,
		Processed: result.State == webhooks.StateApplied,
		Result:    string(result.State),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ack); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// HandleEsignCallback receives signing lifecycle events from the e-signature
// vendor. Unknown event types are acknowledged and ignored.
func (h *WebhooksHandler) HandleEsignCallback(w http.ResponseWriter, r *http.Request) {
	var payload api.EsignCallback
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	outcome, err := h.Esign.Process(r.Context(), payload)
	if err != nil {
		if errors.Is(err, webhooks.ErrUnknownEsignEvent) {
			outcome = "ignored"
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"result": outcome}); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
