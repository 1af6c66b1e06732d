// Package reconcile computes whether a quote revision is solvent against the
// project's escrow history: does the client owe a top-up, and has the project
// already paid out more than the revised total. The contract signing flow
// consults these checks before allowing finalization.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
	"github.com/shopspring/decimal"
)

// GateReason names why the signing gate blocks a contract.
type GateReason string

const (
	// ReasonTopUpRequired means the revision raised the total and the client
	// must pay the difference first. Takes precedence over admin review.
	ReasonTopUpRequired GateReason = "TOP_UP_REQUIRED"
	// ReasonAdminReviewRequired means the revision fell below what the project
	// has already paid out; manual reconciliation is required.
	ReasonAdminReviewRequired GateReason = "ADMIN_REVIEW_REQUIRED"
)

// maxChainDepth bounds the walk up parent_quote_id. Chains deeper than this
// indicate corrupted data, not a legitimate revision history.
const maxChainDepth = 50

// TopUpCheck is the result of comparing a revision against its original.
type TopUpCheck struct {
	RequiresTopUp bool
	TopUpAmount   decimal.Decimal
}

// UnderPaymentCheck is the result of comparing a revision against the
// project's cumulative payouts.
type UnderPaymentCheck struct {
	RequiresAdminReview bool
	Shortfall           decimal.Decimal
	TotalPaid           decimal.Decimal
}

// GateResult is the outcome of the contract signing gate.
type GateResult struct {
	Allowed     bool
	Reason      GateReason
	TopUpAmount decimal.Decimal
	Shortfall   decimal.Decimal
}

// RevisionInput carries the would-be revision's commercial content.
type RevisionInput struct {
	QuoteAmount decimal.Decimal
	Summary     []models.QuoteLineItem
}

// RevisionResult is the persisted revision plus the combined signing verdict.
type RevisionResult struct {
	Quote           *models.Quote
	CanSignContract bool
}

// TotalOf computes the authoritative total of a quote: the sum of
// (amount + tax) over the summary lines, rounded half-up to 2 decimal places,
// falling back to the flat quote amount when the summary is empty.
func TotalOf(q *models.Quote) decimal.Decimal {
	if len(q.Summary) == 0 {
		return q.QuoteAmount.Round(2)
	}
	total := decimal.Zero
	for _, line := range q.Summary {
		total = total.Add(line.Amount).Add(line.Tax)
	}
	return total.Round(2)
}

// CheckTopUpRequired reports whether the revised quote exceeds the original
// and by how much.
func CheckTopUpRequired(original, revised *models.Quote) TopUpCheck {
	diff := TotalOf(revised).Sub(TotalOf(original)).Round(2)
	if diff.IsPositive() {
		return TopUpCheck{RequiresTopUp: true, TopUpAmount: diff}
	}
	return TopUpCheck{RequiresTopUp: false, TopUpAmount: decimal.Zero}
}

// Reconciler evaluates quote revisions against the project ledger.
type Reconciler struct {
	quotes  storage.QuoteStore
	wallets storage.WalletReader
	logger  *slog.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(quotes storage.QuoteStore, wallets storage.WalletReader, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{quotes: quotes, wallets: wallets, logger: logger}
}

// CheckUnderPayment reports whether the revised total has fallen below what
// the project has already paid out. The total paid is the wallet's running
// withdrawal sum, which by invariant equals the sum of WITHDRAWAL ledger
// events. When the project's wallet cannot be resolved the check fails open:
// requiresAdminReview is false and the lookup error is returned alongside for
// the caller to surface. This is specified business behavior, not a bug; see
// DESIGN.md.
func (r *Reconciler) CheckUnderPayment(ctx context.Context, projectID string, revised *models.Quote) (UnderPaymentCheck, error) {
	wallet, err := r.wallets.GetWallet(ctx, projectID)
	if err != nil {
		return UnderPaymentCheck{RequiresAdminReview: false, Shortfall: decimal.Zero, TotalPaid: decimal.Zero},
			fmt.Errorf("under-payment check for project %s failed open: %w", projectID, err)
	}

	// Wallet amounts are minor units; shift to rupees for quote comparison.
	totalPaid := decimal.New(wallet.TotalWithdrawn, -2)
	revisedTotal := TotalOf(revised)

	if revisedTotal.LessThan(totalPaid) {
		return UnderPaymentCheck{
			RequiresAdminReview: true,
			Shortfall:           totalPaid.Sub(revisedTotal).Round(2),
			TotalPaid:           totalPaid,
		}, nil
	}
	return UnderPaymentCheck{RequiresAdminReview: false, Shortfall: decimal.Zero, TotalPaid: totalPaid}, nil
}

// CheckContractSigningBlock evaluates whether contract signing should be
// blocked for the given quote. A quote with no revision chain never blocks.
// The top-up requirement is checked first and takes precedence; only when no
// top-up is owed is under-payment considered. Any internal error fails open:
// signing is allowed and the error is returned for operator visibility, so a
// transient fault can never permanently block a contract.
func (r *Reconciler) CheckContractSigningBlock(ctx context.Context, quoteID string) (GateResult, error) {
	allowed := GateResult{Allowed: true, TopUpAmount: decimal.Zero, Shortfall: decimal.Zero}

	quote, err := r.quotes.GetQuote(ctx, quoteID)
	if err != nil {
		return allowed, fmt.Errorf("signing gate failed open for quote %s: %w", quoteID, err)
	}

	if quote.ParentQuoteID == "" {
		return allowed, nil
	}

	original, err := r.resolveOriginal(ctx, quote)
	if err != nil {
		return allowed, fmt.Errorf("signing gate failed open for quote %s: %w", quoteID, err)
	}

	if topUp := CheckTopUpRequired(original, quote); topUp.RequiresTopUp {
		return GateResult{
			Allowed:     false,
			Reason:      ReasonTopUpRequired,
			TopUpAmount: topUp.TopUpAmount,
			Shortfall:   decimal.Zero,
		}, nil
	}

	underPayment, err := r.CheckUnderPayment(ctx, original.ProjectID, quote)
	if err != nil {
		return allowed, err
	}
	if underPayment.RequiresAdminReview {
		return GateResult{
			Allowed:     false,
			Reason:      ReasonAdminReviewRequired,
			TopUpAmount: decimal.Zero,
			Shortfall:   underPayment.Shortfall,
		}, nil
	}

	return allowed, nil
}

// CreateRevision resolves the original quote, computes both solvency checks
// against the would-be revision, persists it with the flags pre-populated and
// returns whether the contract can be signed as-is.
func (r *Reconciler) CreateRevision(ctx context.Context, originalQuoteID string, input RevisionInput) (*RevisionResult, error) {
	original, err := r.quotes.GetQuote(ctx, originalQuoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve original quote: %w", err)
	}

	count, err := r.quotes.CountRevisions(ctx, originalQuoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to count existing revisions: %w", err)
	}

	revision := &models.Quote{
		QuoteID:        uuid.New().String(),
		ProjectID:      original.ProjectID,
		ParentQuoteID:  originalQuoteID,
		IsRevision:     true,
		RevisionNumber: int(count) + 1,
		QuoteAmount:    input.QuoteAmount,
		Summary:        input.Summary,
		TopUpAmount:    decimal.Zero,
		Shortfall:      decimal.Zero,
		CreatedAt:      time.Now().UTC(),
	}

	topUp := CheckTopUpRequired(original, revision)
	revision.RequiresTopUp = topUp.RequiresTopUp
	revision.TopUpAmount = topUp.TopUpAmount

	underPayment, err := r.CheckUnderPayment(ctx, original.ProjectID, revision)
	if err != nil {
		// Fail open, but make the skipped check visible to operators.
		r.logger.Error("under-payment check failed open during revision creation",
			"quoteId", originalQuoteID,
			"projectId", original.ProjectID,
			"error", err,
		)
	}
	revision.RequiresAdminReview = underPayment.RequiresAdminReview
	revision.Shortfall = underPayment.Shortfall

	if err := r.quotes.PutQuoteRevision(ctx, revision); err != nil {
		return nil, fmt.Errorf("failed to persist revision: %w", err)
	}

	return &RevisionResult{
		Quote:           revision,
		CanSignContract: !revision.RequiresTopUp && !revision.RequiresAdminReview,
	}, nil
}

// resolveOriginal walks up the parent chain to the unrevised original quote.
func (r *Reconciler) resolveOriginal(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	seen := map[string]bool{quote.QuoteID: true}
	current := quote
	for depth := 0; current.ParentQuoteID != ""; depth++ {
		if depth >= maxChainDepth {
			return nil, fmt.Errorf("revision chain for quote %s exceeds %d levels", quote.QuoteID, maxChainDepth)
		}
		if seen[current.ParentQuoteID] {
			return nil, errors.New("revision chain contains a cycle")
		}
		seen[current.ParentQuoteID] = true

		parent, err := r.quotes.GetQuote(ctx, current.ParentQuoteID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve parent quote %s: %w", current.ParentQuoteID, err)
		}
		current = parent
	}
	return current, nil
}
