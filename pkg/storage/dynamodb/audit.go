package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/renovalink/escrow-ledger/pkg/models"
)

const (
	auditByTargetGSI    = "target_id-created_at-index"
	auditByActorGSI     = "actor_id-created_at-index"
	auditByEventTypeGSI = "event_type-created_at-index"
)

// PutAuditEntry appends an immutable audit entry. The condition guards
// against a redelivered outbox message overwriting an existing entry.
func (s *Store) PutAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	entryAV, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.AuditTableName),
		Item:                entryAV,
		ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			// Already written by a previous delivery of the same outbox message.
			return nil
		}
		return fmt.Errorf("failed to put audit entry: %w", err)
	}

	return nil
}

// ListAuditByTarget retrieves audit entries for a target, newest first.
func (s *Store) ListAuditByTarget(ctx context.Context, targetID string, limit int32, before time.Time) ([]models.AuditEntry, error) {
	return s.queryAudit(ctx, auditByTargetGSI, "target_id", targetID, limit, before)
}

// ListAuditByActor retrieves audit entries recorded against an actor, newest first.
func (s *Store) ListAuditByActor(ctx context.Context, actorID string, limit int32, before time.Time) ([]models.AuditEntry, error) {
	return s.queryAudit(ctx, auditByActorGSI, "actor_id", actorID, limit, before)
}

// ListAuditByEventType retrieves audit entries of one event type, newest first.
func (s *Store) ListAuditByEventType(ctx context.Context, eventType string, limit int32, before time.Time) ([]models.AuditEntry, error) {
	return s.queryAudit(ctx, auditByEventTypeGSI, "event_type", eventType, limit, before)
}

func (s *Store) queryAudit(ctx context.Context, index, keyAttr, keyValue string, limit int32, before time.Time) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	keyCondition := "#pk = :pk"
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: keyValue},
	}
	if !before.IsZero() {
		beforeStr, err := before.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pagination cursor: %w", err)
		}
		keyCondition = "#pk = :pk AND created_at < :before"
		values[":before"] = &types.AttributeValueMemberS{Value: string(beforeStr)}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.AuditTableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeNames:  map[string]string{"#pk": keyAttr},
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log by %s: %w", keyAttr, err)
	}

	var entries []models.AuditEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit entries: %w", err)
	}

	return entries, nil
}
