// Package api holds the request and response types for the HTTP surface.
package api

import "time"

// NewWallet is the request body for creating a project wallet.
type NewWallet struct {
	ProjectID string `json:"project_id"`
	Currency  string `json:"currency,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

// Wallet is the API representation of an escrow wallet.
type Wallet struct {
	ProjectID        string `json:"project_id"`
	Balance          int64  `json:"balance"`
	Reserved         int64  `json:"reserved"`
	AvailableBalance int64  `json:"available_balance"`
	Status           string `json:"status"`
	Currency         string `json:"currency"`
	Provider         string `json:"provider,omitempty"`
	TotalDeposited   int64  `json:"total_deposited"`
	TotalWithdrawn   int64  `json:"total_withdrawn"`
	DepositCount     int64  `json:"deposit_count"`
	WithdrawalCount  int64  `json:"withdrawal_count"`
	Version          int64  `json:"version"`
}

// WithdrawRequest is the request body for disbursing funds from a wallet.
type WithdrawRequest struct {
	Amount        int64   `json:"amount"`
	TransactionID *string `json:"transaction_id,omitempty"`
	ActorID       *string `json:"actor_id,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// ReserveRequest is the request body for earmarking funds.
type ReserveRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// ReleaseRequest is the request body for releasing earmarked funds.
type ReleaseRequest struct {
	Amount int64 `json:"amount"`
}

// AdjustRequest is the admin-facing balance adjustment. A positive amount is
// credited through the deposit path, a negative one debited through the
// withdrawal path. Reason is mandatory.
type AdjustRequest struct {
	Amount  int64  `json:"amount"`
	Reason  string `json:"reason"`
	ActorID string `json:"actor_id"`
}

// StatusChangeRequest is the request body for freeze, unfreeze and close.
type StatusChangeRequest struct {
	ActorID string `json:"actor_id,omitempty"`
}

// LedgerEvent is the API representation of one ledger event.
type LedgerEvent struct {
	EventID       string    `json:"event_id"`
	WalletID      string    `json:"wallet_id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	ExternalTxnID string    `json:"external_txn_id,omitempty"`
	ActorID       string    `json:"actor_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuditEntry is the API representation of one audit log entry.
type AuditEntry struct {
	EntryID    string            `json:"entry_id"`
	EventType  string            `json:"event_type"`
	ActorID    string            `json:"actor_id"`
	ActorRole  string            `json:"actor_role"`
	TargetType string            `json:"target_type"`
	TargetID   string            `json:"target_id"`
	Amount     int64             `json:"amount,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// DepositWebhook is the payload delivered by the payment provider when funds
// move into escrow. Amount is in minor units. Either ProjectID or WalletID
// must be present.
type DepositWebhook struct {
	ProjectID     *string           `json:"projectId,omitempty"`
	WalletID      *string           `json:"walletId,omitempty"`
	Amount        int64             `json:"amount"`
	TransactionID string            `json:"transactionId"`
	Status        string            `json:"status"`
	Currency      *string           `json:"currency,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// WebhookAck is the body returned to the provider for every structurally
// valid delivery, regardless of the internal outcome.
type WebhookAck struct {
	Received  bool   `json:"received"`
	Processed bool   `json:"processed"`
	Result    string `json:"result"`
}

// EsignCallback is the payload delivered by the e-signature vendor.
type EsignCallback struct {
	DocumentID string            `json:"documentId"`
	Event      string            `json:"event"`
	Invitee    *string           `json:"invitee,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// QuoteLineItem is one summary line of a quote. Amounts are decimal strings.
type QuoteLineItem struct {
	Amount string `json:"amount"`
	Tax    string `json:"tax"`
}

// NewRevision is the request body for creating a quote revision.
type NewRevision struct {
	QuoteAmount string          `json:"quote_amount,omitempty"`
	Summary     []QuoteLineItem `json:"summary,omitempty"`
}

// Revision is the API representation of a persisted quote revision.
type Revision struct {
	QuoteID             string `json:"quote_id"`
	ParentQuoteID       string `json:"parent_quote_id"`
	ProjectID           string `json:"project_id"`
	RevisionNumber      int    `json:"revision_number"`
	Total               string `json:"total"`
	RequiresTopUp       bool   `json:"requires_top_up"`
	TopUpAmount         string `json:"top_up_amount"`
	RequiresAdminReview bool   `json:"requires_admin_review"`
	Shortfall           string `json:"shortfall"`
	CanSignContract     bool   `json:"can_sign_contract"`
}

// SigningGate is the result of evaluating the contract signing gate.
type SigningGate struct {
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason,omitempty"`
	TopUpAmount string `json:"top_up_amount,omitempty"`
	Shortfall   string `json:"shortfall,omitempty"`
}
