package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletStatus defines the lifecycle states of an escrow wallet.
type WalletStatus string

const (
	WalletPending WalletStatus = "pending"
	WalletActive  WalletStatus = "active"
	WalletFrozen  WalletStatus = "frozen"
	WalletClosed  WalletStatus = "closed"
)

// LedgerEventType defines the kinds of balance-affecting ledger events.
type LedgerEventType string

const (
	EventDeposit        LedgerEventType = "DEPOSIT"
	EventWithdrawal     LedgerEventType = "WITHDRAWAL"
	EventReserve        LedgerEventType = "RESERVE"
	EventReleaseReserve LedgerEventType = "RELEASE_RESERVE"
)

// Wallet is the escrow holding account for a single project. There is at most
// one wallet per project. All amounts are int64 minor units (paise).
type Wallet struct {
	ProjectID        string       `json:"project_id" dynamodbav:"project_id"`
	Balance          int64        `json:"balance" dynamodbav:"balance"`
	Reserved         int64        `json:"reserved" dynamodbav:"reserved"`
	Version          int64        `json:"version" dynamodbav:"version"`
	Status           WalletStatus `json:"status" dynamodbav:"status"`
	Currency         string       `json:"currency" dynamodbav:"currency"`
	Provider         string       `json:"provider" dynamodbav:"provider"`
	ProviderWalletID string       `json:"provider_wallet_id,omitempty" dynamodbav:"provider_wallet_id,omitempty"`

	// Running counters. Must always equal the sums over this wallet's ledger
	// events; they are updated in the same atomic write that appends the event.
	TotalDeposited  int64 `json:"total_deposited" dynamodbav:"total_deposited"`
	TotalWithdrawn  int64 `json:"total_withdrawn" dynamodbav:"total_withdrawn"`
	DepositCount    int64 `json:"deposit_count" dynamodbav:"deposit_count"`
	WithdrawalCount int64 `json:"withdrawal_count" dynamodbav:"withdrawal_count"`

	LastDepositAt    *time.Time `json:"last_deposit_at,omitempty" dynamodbav:"last_deposit_at,omitempty"`
	LastWithdrawalAt *time.Time `json:"last_withdrawal_at,omitempty" dynamodbav:"last_withdrawal_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// Available returns the portion of the balance eligible for withdrawal.
// Never negative.
func (w *Wallet) Available() int64 {
	available := w.Balance - w.Reserved
	if available < 0 {
		return 0
	}
	return available
}

// LedgerEvent is one append-only entry in a wallet's financial history.
// Provider-sourced deposits are keyed by their external transaction id so a
// redelivered webhook cannot append a second event for the same payment.
type LedgerEvent struct {
	WalletID      string          `json:"wallet_id" dynamodbav:"wallet_id"`
	EventKey      string          `json:"-" dynamodbav:"event_key"`
	EventID       string          `json:"event_id" dynamodbav:"event_id"`
	Type          LedgerEventType `json:"type" dynamodbav:"event_type"`
	Amount        int64           `json:"amount" dynamodbav:"amount"`
	ExternalTxnID string          `json:"external_txn_id,omitempty" dynamodbav:"external_txn_id,omitempty"`
	ActorID       string          `json:"actor_id,omitempty" dynamodbav:"actor_id,omitempty"`
	Reason        string          `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at" dynamodbav:"created_at"`
}

// AuditEntry is an immutable compliance record of a mutating action.
// Entries are never updated or deleted after creation.
type AuditEntry struct {
	EntryID    string            `json:"entry_id" dynamodbav:"entry_id"`
	EventType  string            `json:"event_type" dynamodbav:"event_type"`
	ActorID    string            `json:"actor_id" dynamodbav:"actor_id"`
	ActorRole  string            `json:"actor_role" dynamodbav:"actor_role"`
	TargetType string            `json:"target_type" dynamodbav:"target_type"`
	TargetID   string            `json:"target_id" dynamodbav:"target_id"`
	Amount     int64             `json:"amount,omitempty" dynamodbav:"amount,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	IP         string            `json:"ip,omitempty" dynamodbav:"ip,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty" dynamodbav:"user_agent,omitempty"`
	CreatedAt  time.Time         `json:"created_at" dynamodbav:"created_at"`
}

// QuoteLineItem is a single line of a quote summary. Amounts are decimal
// rupees; the line total is amount + tax.
type QuoteLineItem struct {
	Amount decimal.Decimal `json:"amount"`
	Tax    decimal.Decimal `json:"tax"`
}

// Quote is the commercial quote for a project. Revisions point back at their
// original through ParentQuoteID. The summary line items are the authoritative
// total; QuoteAmount is only a fallback when the summary is empty.
type Quote struct {
	QuoteID        string          `json:"quote_id"`
	ProjectID      string          `json:"project_id"`
	ParentQuoteID  string          `json:"parent_quote_id,omitempty"`
	IsRevision     bool            `json:"is_revision"`
	RevisionNumber int             `json:"revision_number,omitempty"`
	QuoteAmount    decimal.Decimal `json:"quote_amount"`
	Summary        []QuoteLineItem `json:"summary,omitempty"`

	// Reconciliation flags, populated when a revision is created.
	RequiresTopUp       bool            `json:"requires_top_up"`
	TopUpAmount         decimal.Decimal `json:"top_up_amount"`
	RequiresAdminReview bool            `json:"requires_admin_review"`
	Shortfall           decimal.Decimal `json:"shortfall"`

	CreatedAt time.Time `json:"created_at"`
}

// DeliveryOutcome is the terminal state of one inbound webhook delivery.
type DeliveryOutcome string

const (
	// DeliveryApplied means the delivery resulted in a ledger mutation (or an
	// idempotent replay of one).
	DeliveryApplied DeliveryOutcome = "APPLIED"
	// DeliveryIgnored means the payload was valid but carried a non-terminal
	// provider status, e.g. pending or failed.
	DeliveryIgnored DeliveryOutcome = "IGNORED"
	// DeliveryRejected means the payload failed signature or shape validation.
	DeliveryRejected DeliveryOutcome = "REJECTED"
	// DeliveryFailed means the payload passed validation but internal
	// processing broke. These deliveries were acknowledged to the provider and
	// are re-driven by the reconciliation job.
	DeliveryFailed DeliveryOutcome = "FAILED"
)

// WebhookDelivery is the durable record of one inbound provider notification.
type WebhookDelivery struct {
	DeliveryID    string          `json:"delivery_id" dynamodbav:"delivery_id"`
	Provider      string          `json:"provider" dynamodbav:"provider"`
	TransactionID string          `json:"transaction_id,omitempty" dynamodbav:"transaction_id,omitempty"`
	ProjectID     string          `json:"project_id,omitempty" dynamodbav:"project_id,omitempty"`
	Amount        int64           `json:"amount,omitempty" dynamodbav:"amount,omitempty"`
	Status        string          `json:"status,omitempty" dynamodbav:"status,omitempty"`
	Payload       string          `json:"payload,omitempty" dynamodbav:"payload,omitempty"`
	Outcome       DeliveryOutcome `json:"outcome" dynamodbav:"outcome"`
	Error         string          `json:"error,omitempty" dynamodbav:"error,omitempty"`
	ReceivedAt    time.Time       `json:"received_at" dynamodbav:"received_at"`
}
