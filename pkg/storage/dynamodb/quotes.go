package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
	"github.com/shopspring/decimal"
)

const revisionsGSI = "parent_quote_id-index"

// quoteRecord is the persisted shape of a quote. Money fields are stored as
// decimal strings so no precision is lost on the round trip.
type quoteRecord struct {
	QuoteID             string            `dynamodbav:"quote_id"`
	ProjectID           string            `dynamodbav:"project_id"`
	ParentQuoteID       string            `dynamodbav:"parent_quote_id,omitempty"`
	IsRevision          bool              `dynamodbav:"is_revision"`
	RevisionNumber      int               `dynamodbav:"revision_number,omitempty"`
	QuoteAmount         string            `dynamodbav:"quote_amount"`
	Summary             []quoteLineRecord `dynamodbav:"summary,omitempty"`
	RequiresTopUp       bool              `dynamodbav:"requires_top_up"`
	TopUpAmount         string            `dynamodbav:"top_up_amount"`
	RequiresAdminReview bool              `dynamodbav:"requires_admin_review"`
	Shortfall           string            `dynamodbav:"shortfall"`
	CreatedAt           time.Time         `dynamodbav:"created_at"`
}

type quoteLineRecord struct {
	Amount string `dynamodbav:"amount"`
	Tax    string `dynamodbav:"tax"`
}

func toQuoteRecord(q *models.Quote) *quoteRecord {
	rec := &quoteRecord{
		QuoteID:             q.QuoteID,
		ProjectID:           q.ProjectID,
		ParentQuoteID:       q.ParentQuoteID,
		IsRevision:          q.IsRevision,
		RevisionNumber:      q.RevisionNumber,
		QuoteAmount:         q.QuoteAmount.String(),
		RequiresTopUp:       q.RequiresTopUp,
		TopUpAmount:         q.TopUpAmount.String(),
		RequiresAdminReview: q.RequiresAdminReview,
		Shortfall:           q.Shortfall.String(),
		CreatedAt:           q.CreatedAt,
	}
	for _, line := range q.Summary {
		rec.Summary = append(rec.Summary, quoteLineRecord{Amount: line.Amount.String(), Tax: line.Tax.String()})
	}
	return rec
}

func (r *quoteRecord) toQuote() (*models.Quote, error) {
	quoteAmount, err := decimal.NewFromString(r.QuoteAmount)
	if err != nil {
		return nil, fmt.Errorf("quote %s has malformed quote_amount %q: %w", r.QuoteID, r.QuoteAmount, err)
	}
	topUp, err := decimal.NewFromString(nonEmpty(r.TopUpAmount))
	if err != nil {
		return nil, fmt.Errorf("quote %s has malformed top_up_amount %q: %w", r.QuoteID, r.TopUpAmount, err)
	}
	shortfall, err := decimal.NewFromString(nonEmpty(r.Shortfall))
	if err != nil {
		return nil, fmt.Errorf("quote %s has malformed shortfall %q: %w", r.QuoteID, r.Shortfall, err)
	}

	q := &models.Quote{
		QuoteID:             r.QuoteID,
		ProjectID:           r.ProjectID,
		ParentQuoteID:       r.ParentQuoteID,
		IsRevision:          r.IsRevision,
		RevisionNumber:      r.RevisionNumber,
		QuoteAmount:         quoteAmount,
		RequiresTopUp:       r.RequiresTopUp,
		TopUpAmount:         topUp,
		RequiresAdminReview: r.RequiresAdminReview,
		Shortfall:           shortfall,
		CreatedAt:           r.CreatedAt,
	}
	for _, line := range r.Summary {
		amount, err := decimal.NewFromString(line.Amount)
		if err != nil {
			return nil, fmt.Errorf("quote %s has malformed summary amount %q: %w", r.QuoteID, line.Amount, err)
		}
		tax, err := decimal.NewFromString(nonEmpty(line.Tax))
		if err != nil {
			return nil, fmt.Errorf("quote %s has malformed summary tax %q: %w", r.QuoteID, line.Tax, err)
		}
		q.Summary = append(q.Summary, models.QuoteLineItem{Amount: amount, Tax: tax})
	}
	return q, nil
}

func nonEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// GetQuote retrieves a quote by id.
func (s *Store) GetQuote(ctx context.Context, quoteID string) (*models.Quote, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"quote_id": quoteID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quote ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.QuotesTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("quote %s: %w", quoteID, storage.ErrQuoteNotFound)
	}

	var rec quoteRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	return rec.toQuote()
}

// CountRevisions returns the number of existing revisions of a quote.
func (s *Store) CountRevisions(ctx context.Context, parentQuoteID string) (int64, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.QuotesTableName),
		IndexName:              aws.String(revisionsGSI),
		KeyConditionExpression: aws.String("parent_quote_id = :parent"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":parent": &types.AttributeValueMemberS{Value: parentQuoteID},
		},
		Select: types.SelectCount,
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to count quote revisions: %w", err)
	}

	return int64(result.Count), nil
}

// PutQuoteRevision persists a new revision record.
func (s *Store) PutQuoteRevision(ctx context.Context, quote *models.Quote) error {
	recAV, err := attributevalue.MarshalMap(toQuoteRecord(quote))
	if err != nil {
		return fmt.Errorf("failed to marshal quote revision: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.QuotesTableName),
		Item:                recAV,
		ConditionExpression: aws.String("attribute_not_exists(quote_id)"),
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to put quote revision: %w", err)
	}

	return nil
}
