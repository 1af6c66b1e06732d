package dynamodb

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
	"github.com/renovalink/escrow-ledger/pkg/storage/dynamodb/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetQuote(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		rec := &quoteRecord{
			QuoteID:     "quote-1",
			ProjectID:   "proj-1",
			QuoteAmount: "590000",
			Summary: []quoteLineRecord{
				{Amount: "500000", Tax: "90000"},
			},
			TopUpAmount: "0",
			Shortfall:   "0",
		}
		recAV, _ := attributevalue.MarshalMap(rec)

		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: recAV}, nil)

		store := newTestStore(mockClient)
		quote, err := store.GetQuote(context.Background(), "quote-1")

		assert.NoError(t, err)
		assert.True(t, quote.QuoteAmount.Equal(decimal.NewFromInt(590000)))
		assert.Len(t, quote.Summary, 1)
		assert.True(t, quote.Summary[0].Tax.Equal(decimal.NewFromInt(90000)))
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := newTestStore(mockClient)
		_, err := store.GetQuote(context.Background(), "quote-404")

		assert.ErrorIs(t, err, storage.ErrQuoteNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestQuoteRecordRoundTrip(t *testing.T) {
	// Fractional paise must survive persistence exactly.
	original := &models.Quote{
		QuoteID:     "quote-1",
		ProjectID:   "proj-1",
		QuoteAmount: decimal.RequireFromString("123456.785"),
		Summary: []models.QuoteLineItem{
			{Amount: decimal.RequireFromString("99999.99"), Tax: decimal.RequireFromString("0.005")},
		},
		TopUpAmount: decimal.RequireFromString("60000"),
		Shortfall:   decimal.Zero,
	}

	restored, err := toQuoteRecord(original).toQuote()

	assert.NoError(t, err)
	assert.True(t, restored.QuoteAmount.Equal(original.QuoteAmount))
	assert.True(t, restored.Summary[0].Amount.Equal(original.Summary[0].Amount))
	assert.True(t, restored.Summary[0].Tax.Equal(original.Summary[0].Tax))
	assert.True(t, restored.TopUpAmount.Equal(original.TopUpAmount))
}

func TestCountRevisions(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Count: 2}, nil)

	store := newTestStore(mockClient)
	count, err := store.CountRevisions(context.Background(), "quote-1")

	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	mockClient.AssertExpectations(t)
}
