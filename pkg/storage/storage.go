package storage

// ApiStore defines the complete set of non-privileged operations needed by
// the API. It composes the granular interfaces to provide a clear boundary
// for the API's data access.
type ApiStore interface {
	WalletStore
	LedgerReader
	AuditReader
	QuoteStore
	DeliveryStore
}

// Storage defines the root interface for the entire data layer. It adds the
// privileged audit write side, which only the outbox consumer should use.
// Components should depend on the more granular interfaces instead of this one.
type Storage interface {
	ApiStore
	AuditWriter
}
