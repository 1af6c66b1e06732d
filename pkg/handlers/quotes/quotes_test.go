package quotes_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/renovalink/escrow-ledger/pkg/api"
	"github.com/renovalink/escrow-ledger/pkg/handlers/quotes"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/reconcile"
	"github.com/renovalink/escrow-ledger/pkg/storage"
	"github.com/renovalink/escrow-ledger/pkg/storage/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, store *mocks.Storage) *quotes.QuotesHandler {
	t.Helper()
	return quotes.NewQuotesHandler(reconcile.NewReconciler(store, store, nil), nil)
}

func TestCreateRevision(t *testing.T) {
	original := &models.Quote{
		QuoteID:     "quote-orig",
		ProjectID:   "proj-1",
		QuoteAmount: decimal.NewFromInt(590000),
	}

	t.Run("Top-Up Revision", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetQuote", mock.Anything, "quote-orig").Return(original, nil)
		mockStorage.On("CountRevisions", mock.Anything, "quote-orig").Return(int64(0), nil)
		mockStorage.On("GetWallet", mock.Anything, "proj-1").
			Return(&models.Wallet{ProjectID: "proj-1", TotalWithdrawn: 0}, nil)
		mockStorage.On("PutQuoteRevision", mock.Anything, mock.Anything).Return(nil)

		h := newHandler(t, mockStorage)

		body, _ := json.Marshal(api.NewRevision{QuoteAmount: "650000"})
		req := httptest.NewRequest(http.MethodPost, "/quotes/quote-orig/revisions", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateRevision(rr, req, "quote-orig")

		assert.Equal(t, http.StatusCreated, rr.Code)
		var got api.Revision
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.True(t, got.RequiresTopUp)
		assert.Equal(t, "60000", got.TopUpAmount)
		assert.Equal(t, 1, got.RevisionNumber)
		assert.False(t, got.CanSignContract)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Invalid Decimal", func(t *testing.T) {
		h := newHandler(t, new(mocks.Storage))

		body, _ := json.Marshal(api.NewRevision{QuoteAmount: "six lakh"})
		req := httptest.NewRequest(http.MethodPost, "/quotes/quote-orig/revisions", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateRevision(rr, req, "quote-orig")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Unknown Quote", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetQuote", mock.Anything, "quote-404").Return(nil, storage.ErrQuoteNotFound)

		h := newHandler(t, mockStorage)

		body, _ := json.Marshal(api.NewRevision{QuoteAmount: "100"})
		req := httptest.NewRequest(http.MethodPost, "/quotes/quote-404/revisions", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.CreateRevision(rr, req, "quote-404")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStorage.AssertExpectations(t)
	})
}

func TestGetSigningGate(t *testing.T) {
	t.Run("Blocked By Top-Up", func(t *testing.T) {
		original := &models.Quote{QuoteID: "quote-orig", ProjectID: "proj-1", QuoteAmount: decimal.NewFromInt(590000)}
		revision := &models.Quote{
			QuoteID:       "quote-rev",
			ProjectID:     "proj-1",
			ParentQuoteID: "quote-orig",
			QuoteAmount:   decimal.NewFromInt(650000),
		}
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetQuote", mock.Anything, "quote-rev").Return(revision, nil)
		mockStorage.On("GetQuote", mock.Anything, "quote-orig").Return(original, nil)

		h := newHandler(t, mockStorage)

		req := httptest.NewRequest(http.MethodGet, "/quotes/quote-rev/signing-gate", nil)
		rr := httptest.NewRecorder()

		h.GetSigningGate(rr, req, "quote-rev")

		assert.Equal(t, http.StatusOK, rr.Code)
		var got api.SigningGate
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.False(t, got.Allowed)
		assert.Equal(t, "TOP_UP_REQUIRED", got.Reason)
		assert.Equal(t, "60000", got.TopUpAmount)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Unknown Quote", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetQuote", mock.Anything, "quote-404").Return(nil, storage.ErrQuoteNotFound)

		h := newHandler(t, mockStorage)

		req := httptest.NewRequest(http.MethodGet, "/quotes/quote-404/signing-gate", nil)
		rr := httptest.NewRecorder()

		h.GetSigningGate(rr, req, "quote-404")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Fail-Open Error Is Logged", func(t *testing.T) {
		original := &models.Quote{QuoteID: "quote-orig", ProjectID: "proj-1", QuoteAmount: decimal.NewFromInt(590000)}
		revision := &models.Quote{
			QuoteID:       "quote-rev",
			ProjectID:     "proj-1",
			ParentQuoteID: "quote-orig",
			QuoteAmount:   decimal.NewFromInt(590000),
		}
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetQuote", mock.Anything, "quote-rev").Return(revision, nil)
		mockStorage.On("GetQuote", mock.Anything, "quote-orig").Return(original, nil)
		mockStorage.On("GetWallet", mock.Anything, "proj-1").Return(nil, assert.AnError)

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		h := quotes.NewQuotesHandler(reconcile.NewReconciler(mockStorage, mockStorage, logger), logger)

		req := httptest.NewRequest(http.MethodGet, "/quotes/quote-rev/signing-gate", nil)
		rr := httptest.NewRecorder()

		h.GetSigningGate(rr, req, "quote-rev")

		// Fails open for the caller, but the skipped check is on the record.
		assert.Equal(t, http.StatusOK, rr.Code)
		var got api.SigningGate
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.True(t, got.Allowed)
		assert.Contains(t, buf.String(), "signing gate evaluation failed open")
		assert.Contains(t, buf.String(), "quote-rev")
		mockStorage.AssertExpectations(t)
	})
}
