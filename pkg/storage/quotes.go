package storage

import (
	"context"

	"github.com/renovalink/escrow-ledger/pkg/models"
)

// QuoteStore defines the quote persistence the reconciler needs. Quotes are
// owned by the quoting subsystem; this service only reads originals and
// appends revisions with their reconciliation flags.
type QuoteStore interface {
	// GetQuote retrieves a quote by id.
	GetQuote(ctx context.Context, quoteID string) (*models.Quote, error)

	// CountRevisions returns the number of existing revisions of a quote.
	CountRevisions(ctx context.Context, parentQuoteID string) (int64, error)

	// PutQuoteRevision persists a new revision record.
	PutQuoteRevision(ctx context.Context, quote *models.Quote) error
}
