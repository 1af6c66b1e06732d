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
)

const deliveriesByOutcomeGSI = "outcome-received_at-index"

// RecordDelivery persists the record of one inbound webhook delivery.
func (s *Store) RecordDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	deliveryAV, err := attributevalue.MarshalMap(delivery)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook delivery: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.DeliveriesTableName),
		Item:      deliveryAV,
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to record webhook delivery: %w", err)
	}

	return nil
}

// ListFailedDeliveries retrieves deliveries in the FAILED outcome that were
// received more than maxAge ago.
func (s *Store) ListFailedDeliveries(ctx context.Context, maxAge time.Duration) ([]models.WebhookDelivery, error) {
	cutoff := time.Now().Add(-maxAge)
	cutoffStr, err := cutoff.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.DeliveriesTableName),
		IndexName:              aws.String(deliveriesByOutcomeGSI),
		KeyConditionExpression: aws.String("outcome = :outcome AND received_at < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":outcome": &types.AttributeValueMemberS{Value: string(models.DeliveryFailed)},
			":cutoff":  &types.AttributeValueMemberS{Value: string(cutoffStr)},
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed deliveries: %w", err)
	}

	var deliveries []models.WebhookDelivery
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &deliveries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook deliveries: %w", err)
	}

	return deliveries, nil
}

// UpdateDeliveryOutcome rewrites the outcome of a delivery after a replay.
func (s *Store) UpdateDeliveryOutcome(ctx context.Context, deliveryID string, outcome models.DeliveryOutcome) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.DeliveriesTableName),
		Key: map[string]types.AttributeValue{
			"delivery_id": &types.AttributeValueMemberS{Value: deliveryID},
		},
		UpdateExpression:    aws.String("SET outcome = :outcome"),
		ConditionExpression: aws.String("attribute_exists(delivery_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":outcome": &types.AttributeValueMemberS{Value: string(outcome)},
		},
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("failed to update delivery outcome: %w", err)
	}

	return nil
}
