// Package audit provides the best-effort audit trail recorder. Recording an
// audit entry must never abort the financial operation it documents: every
// failure inside this package is logged and swallowed by the caller.
package audit

import "context"

// EventType is the closed set of auditable actions.
type EventType string

const (
	EventWalletDeposited     EventType = "WALLET_DEPOSITED"
	EventWalletWithdrawn     EventType = "WALLET_WITHDRAWN"
	EventBalanceAdjusted     EventType = "BALANCE_ADJUSTED"
	EventFundsReserved       EventType = "FUNDS_RESERVED"
	EventReservationReleased EventType = "RESERVATION_RELEASED"
	EventWalletFrozen        EventType = "WALLET_FROZEN"
	EventWalletUnfrozen      EventType = "WALLET_UNFROZEN"
	EventWalletClosed        EventType = "WALLET_CLOSED"
)

// Event describes one mutating action to be recorded.
type Event struct {
	Type       EventType
	ActorID    string
	TargetType string
	TargetID   string
	Amount     int64
	Metadata   map[string]string
}

// Recorder records audit events. Implementations must be safe to call
// concurrently and must not block on downstream failures longer than a single
// publish round-trip.
type Recorder interface {
	// Record publishes the event. The returned error is informational; callers
	// log it and proceed.
	Record(ctx context.Context, event Event) error
}

// ActorDirectory resolves actor ids to roles for entry enrichment. A failed
// lookup degrades the entry to role "unknown" rather than failing the record.
type ActorDirectory interface {
	LookupRole(ctx context.Context, actorID string) (string, error)
}

type requestMetaKey struct{}

// RequestMeta carries requester details captured at the HTTP edge.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// WithRequestMeta returns a context carrying the requester's details.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom extracts requester details from the context, if present.
func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}
