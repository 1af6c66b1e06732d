package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/renovalink/escrow-ledger/pkg/models"
)

const eventsByTimeGSI = "wallet_id-created_at-index"

// ListLedgerEvents retrieves the most recent ledger events for a wallet,
// newest first.
func (s *Store) ListLedgerEvents(ctx context.Context, walletID string, limit int32) ([]models.LedgerEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.EventsTableName),
		IndexName:              aws.String(eventsByTimeGSI),
		KeyConditionExpression: aws.String("wallet_id = :wallet_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":wallet_id": &types.AttributeValueMemberS{Value: walletID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger events: %w", err)
	}

	var events []models.LedgerEvent
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger events: %w", err)
	}

	return events, nil
}
