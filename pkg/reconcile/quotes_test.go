package reconcile_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/reconcile"
	"github.com/renovalink/escrow-ledger/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuoteStore struct {
	quotes    map[string]*models.Quote
	revisions map[string]int64
	putErr    error
}

func newFakeQuoteStore(quotes ...*models.Quote) *fakeQuoteStore {
	store := &fakeQuoteStore{
		quotes:    make(map[string]*models.Quote),
		revisions: make(map[string]int64),
	}
	for _, q := range quotes {
		store.quotes[q.QuoteID] = q
	}
	return store
}

func (f *fakeQuoteStore) GetQuote(ctx context.Context, quoteID string) (*models.Quote, error) {
	q, ok := f.quotes[quoteID]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", quoteID, storage.ErrQuoteNotFound)
	}
	return q, nil
}

func (f *fakeQuoteStore) CountRevisions(ctx context.Context, parentQuoteID string) (int64, error) {
	return f.revisions[parentQuoteID], nil
}

func (f *fakeQuoteStore) PutQuoteRevision(ctx context.Context, quote *models.Quote) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.quotes[quote.QuoteID] = quote
	f.revisions[quote.ParentQuoteID]++
	return nil
}

type fakeWalletReader struct {
	wallets map[string]*models.Wallet
}

func (f *fakeWalletReader) GetWallet(ctx context.Context, projectID string) (*models.Wallet, error) {
	w, ok := f.wallets[projectID]
	if !ok {
		return nil, fmt.Errorf("wallet for project %s: %w", projectID, storage.ErrWalletNotFound)
	}
	return w, nil
}

func (f *fakeWalletReader) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	return nil, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func originalQuote(total string) *models.Quote {
	return &models.Quote{
		QuoteID:     "quote-orig",
		ProjectID:   "proj-1",
		QuoteAmount: dec(total),
	}
}

func TestTotalOf(t *testing.T) {
	t.Run("Sums Line Items With Tax", func(t *testing.T) {
		q := &models.Quote{
			Summary: []models.QuoteLineItem{
				{Amount: dec("500000"), Tax: dec("90000")},
				{Amount: dec("100000"), Tax: dec("18000")},
			},
		}
		assert.True(t, reconcile.TotalOf(q).Equal(dec("708000")))
	})

	t.Run("Rounds Half-Up To Two Places", func(t *testing.T) {
		q := &models.Quote{
			Summary: []models.QuoteLineItem{
				{Amount: dec("100.005"), Tax: dec("0")},
			},
		}
		assert.Equal(t, "100.01", reconcile.TotalOf(q).StringFixed(2))
	})

	t.Run("Falls Back To Flat Amount", func(t *testing.T) {
		q := &models.Quote{QuoteAmount: dec("590000")}
		assert.True(t, reconcile.TotalOf(q).Equal(dec("590000")))
	})
}

func TestCheckTopUpRequired(t *testing.T) {
	t.Run("Revision Above Original Requires Top-Up", func(t *testing.T) {
		original := originalQuote("590000")
		revised := &models.Quote{QuoteAmount: dec("650000")}

		check := reconcile.CheckTopUpRequired(original, revised)
		assert.True(t, check.RequiresTopUp)
		assert.True(t, check.TopUpAmount.Equal(dec("60000")))
	})

	t.Run("Equal Or Lower Revision Does Not", func(t *testing.T) {
		original := originalQuote("590000")

		check := reconcile.CheckTopUpRequired(original, &models.Quote{QuoteAmount: dec("590000")})
		assert.False(t, check.RequiresTopUp)

		check = reconcile.CheckTopUpRequired(original, &models.Quote{QuoteAmount: dec("500000")})
		assert.False(t, check.RequiresTopUp)
	})
}

func TestCheckUnderPayment(t *testing.T) {
	t.Run("Revision Below Paid Flags Admin Review", func(t *testing.T) {
		// 400000 rupees already paid out, stored as paise on the wallet.
		wallets := &fakeWalletReader{wallets: map[string]*models.Wallet{
			"proj-1": {ProjectID: "proj-1", TotalWithdrawn: 40000000},
		}}
		r := reconcile.NewReconciler(newFakeQuoteStore(), wallets, nil)

		check, err := r.CheckUnderPayment(context.Background(), "proj-1", &models.Quote{QuoteAmount: dec("300000")})
		require.NoError(t, err)
		assert.True(t, check.RequiresAdminReview)
		assert.True(t, check.Shortfall.Equal(dec("100000")))
		assert.True(t, check.TotalPaid.Equal(dec("400000")))
	})

	t.Run("Revision At Or Above Paid Passes", func(t *testing.T) {
		wallets := &fakeWalletReader{wallets: map[string]*models.Wallet{
			"proj-1": {ProjectID: "proj-1", TotalWithdrawn: 40000000},
		}}
		r := reconcile.NewReconciler(newFakeQuoteStore(), wallets, nil)

		check, err := r.CheckUnderPayment(context.Background(), "proj-1", &models.Quote{QuoteAmount: dec("400000")})
		require.NoError(t, err)
		assert.False(t, check.RequiresAdminReview)
	})

	t.Run("Missing Wallet Fails Open", func(t *testing.T) {
		wallets := &fakeWalletReader{wallets: map[string]*models.Wallet{}}
		r := reconcile.NewReconciler(newFakeQuoteStore(), wallets, nil)

		check, err := r.CheckUnderPayment(context.Background(), "proj-1", &models.Quote{QuoteAmount: dec("100")})
		assert.Error(t, err)
		assert.False(t, check.RequiresAdminReview)
	})
}

func TestCheckContractSigningBlock(t *testing.T) {
	walletsWithPaid := func(paise int64) *fakeWalletReader {
		return &fakeWalletReader{wallets: map[string]*models.Wallet{
			"proj-1": {ProjectID: "proj-1", TotalWithdrawn: paise},
		}}
	}

	t.Run("Original Quote Never Blocks", func(t *testing.T) {
		store := newFakeQuoteStore(originalQuote("590000"))
		r := reconcile.NewReconciler(store, walletsWithPaid(0), nil)

		gate, err := r.CheckContractSigningBlock(context.Background(), "quote-orig")
		require.NoError(t, err)
		assert.True(t, gate.Allowed)
	})

	t.Run("Top-Up Takes Precedence Over Under-Payment", func(t *testing.T) {
		// The revision both exceeds the original (top-up owed) and is below
		// what was paid out; the top-up reason must win.
		original := originalQuote("590000")
		revision := &models.Quote{
			QuoteID:       "quote-rev",
			ProjectID:     "proj-1",
			ParentQuoteID: "quote-orig",
			IsRevision:    true,
			QuoteAmount:   dec("650000"),
		}
		store := newFakeQuoteStore(original, revision)
		r := reconcile.NewReconciler(store, walletsWithPaid(70000000), nil)

		gate, err := r.CheckContractSigningBlock(context.Background(), "quote-rev")
		require.NoError(t, err)
		assert.False(t, gate.Allowed)
		assert.Equal(t, reconcile.ReasonTopUpRequired, gate.Reason)
		assert.True(t, gate.TopUpAmount.Equal(dec("60000")))
	})

	t.Run("Under-Payment Blocks When No Top-Up Owed", func(t *testing.T) {
		original := originalQuote("590000")
		revision := &models.Quote{
			QuoteID:       "quote-rev",
			ProjectID:     "proj-1",
			ParentQuoteID: "quote-orig",
			IsRevision:    true,
			QuoteAmount:   dec("300000"),
		}
		store := newFakeQuoteStore(original, revision)
		r := reconcile.NewReconciler(store, walletsWithPaid(40000000), nil)

		gate, err := r.CheckContractSigningBlock(context.Background(), "quote-rev")
		require.NoError(t, err)
		assert.False(t, gate.Allowed)
		assert.Equal(t, reconcile.ReasonAdminReviewRequired, gate.Reason)
		assert.True(t, gate.Shortfall.Equal(dec("100000")))
	})

	t.Run("Unknown Quote Fails Open", func(t *testing.T) {
		r := reconcile.NewReconciler(newFakeQuoteStore(), &fakeWalletReader{}, nil)

		gate, err := r.CheckContractSigningBlock(context.Background(), "quote-404")
		assert.Error(t, err)
		assert.True(t, gate.Allowed)
	})

	t.Run("Wallet Lookup Failure Fails Open", func(t *testing.T) {
		original := originalQuote("590000")
		revision := &models.Quote{
			QuoteID:       "quote-rev",
			ProjectID:     "proj-1",
			ParentQuoteID: "quote-orig",
			QuoteAmount:   dec("300000"),
		}
		store := newFakeQuoteStore(original, revision)
		r := reconcile.NewReconciler(store, &fakeWalletReader{wallets: map[string]*models.Wallet{}}, nil)

		gate, err := r.CheckContractSigningBlock(context.Background(), "quote-rev")
		assert.Error(t, err)
		assert.True(t, gate.Allowed)
	})

	t.Run("Resolves Original Through Revision Chain", func(t *testing.T) {
		original := originalQuote("590000")
		mid := &models.Quote{
			QuoteID:       "quote-rev1",
			ProjectID:     "proj-1",
			ParentQuoteID: "quote-orig",
			QuoteAmount:   dec("600000"),
		}
		latest := &models.Quote{
			QuoteID:       "quote-rev2",
			ProjectID:     "proj-1",
			ParentQuoteID: "quote-rev1",
			QuoteAmount:   dec("650000"),
		}
		store := newFakeQuoteStore(original, mid, latest)
		r := reconcile.NewReconciler(store, walletsWithPaid(0), nil)

		gate, err := r.CheckContractSigningBlock(context.Background(), "quote-rev2")
		require.NoError(t, err)
		// Compared against the unrevised original, not the intermediate.
		assert.True(t, gate.TopUpAmount.Equal(dec("60000")))
	})
}

func TestCreateRevision(t *testing.T) {
	t.Run("Computes Flags And Numbering", func(t *testing.T) {
		store := newFakeQuoteStore(originalQuote("590000"))
		wallets := &fakeWalletReader{wallets: map[string]*models.Wallet{
			"proj-1": {ProjectID: "proj-1", TotalWithdrawn: 0},
		}}
		r := reconcile.NewReconciler(store, wallets, nil)

		result, err := r.CreateRevision(context.Background(), "quote-orig", reconcile.RevisionInput{
			QuoteAmount: dec("650000"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Quote.RevisionNumber)
		assert.True(t, result.Quote.RequiresTopUp)
		assert.True(t, result.Quote.TopUpAmount.Equal(dec("60000")))
		assert.False(t, result.Quote.RequiresAdminReview)
		assert.False(t, result.CanSignContract)

		second, err := r.CreateRevision(context.Background(), "quote-orig", reconcile.RevisionInput{
			QuoteAmount: dec("590000"),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, second.Quote.RevisionNumber)
		assert.True(t, second.CanSignContract)
	})

	t.Run("Wallet Failure Fails Open And Persists", func(t *testing.T) {
		store := newFakeQuoteStore(originalQuote("590000"))
		r := reconcile.NewReconciler(store, &fakeWalletReader{wallets: map[string]*models.Wallet{}}, nil)

		result, err := r.CreateRevision(context.Background(), "quote-orig", reconcile.RevisionInput{
			QuoteAmount: dec("500000"),
		})
		require.NoError(t, err)
		assert.False(t, result.Quote.RequiresAdminReview)
		assert.True(t, result.CanSignContract)
	})

	t.Run("Unknown Original Errors", func(t *testing.T) {
		r := reconcile.NewReconciler(newFakeQuoteStore(), &fakeWalletReader{}, nil)

		_, err := r.CreateRevision(context.Background(), "quote-404", reconcile.RevisionInput{QuoteAmount: dec("1")})
		assert.ErrorIs(t, err, storage.ErrQuoteNotFound)
	})
}
