package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
)

// PersistWalletEvent atomically writes the updated wallet state and appends
// the ledger event. The wallet write is conditioned on the stored version
// still being expectedVersion; the event put is conditioned on the event key
// not existing yet, which is what makes provider deposits idempotent.
func (s *Store) PersistWalletEvent(ctx context.Context, wallet *models.Wallet, expectedVersion int64, event *models.LedgerEvent) error {
	walletAV, err := attributevalue.MarshalMap(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	eventAV, err := attributevalue.MarshalMap(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 0: replace the wallet, guarded by the version read
				// at the start of the read-modify-write.
				Put: &types.Put{
					TableName:           aws.String(s.WalletsTableName),
					Item:                walletAV,
					ConditionExpression: aws.String("attribute_exists(project_id) AND version = :expected"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
					},
				},
			},
			{
				// Operation 1: append the ledger event. The key is derived from
				// the external transaction id for provider-sourced events, so a
				// duplicate delivery cancels the whole transaction.
				Put: &types.Put{
					TableName:           aws.String(s.EventsTableName),
					Item:                eventAV,
					ConditionExpression: aws.String("attribute_not_exists(wallet_id) AND attribute_not_exists(event_key)"),
				},
			},
		},
	}

	_, err = s.Client.TransactWriteItems(ctx, input)
	if err != nil {
		var txc *types.TransactionCanceledException
		if errors.As(err, &txc) {
			return classifyCancellation(txc)
		}
		return fmt.Errorf("failed to persist wallet event: %w", err)
	}

	return nil
}

// PersistWalletStatus writes a wallet whose only change is lifecycle state,
// under the same version discipline as balance mutations.
func (s *Store) PersistWalletStatus(ctx context.Context, wallet *models.Wallet, expectedVersion int64) error {
	walletAV, err := attributevalue.MarshalMap(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.WalletsTableName),
		Item:                walletAV,
		ConditionExpression: aws.String("attribute_exists(project_id) AND version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
		},
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrVersionConflict
		}
		return fmt.Errorf("failed to persist wallet status: %w", err)
	}

	return nil
}

// classifyCancellation maps a cancelled TransactWriteItems to a sentinel.
// The reasons slice is aligned with the transact items: index 0 is the wallet
// version guard, index 1 the event dedup guard. A duplicate event wins over a
// version conflict so redelivered webhooks resolve as idempotent replays
// instead of retrying forever.
func classifyCancellation(txc *types.TransactionCanceledException) error {
	if len(txc.CancellationReasons) > 1 {
		if reason := txc.CancellationReasons[1]; reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return storage.ErrDuplicateTransaction
		}
	}
	if len(txc.CancellationReasons) > 0 {
		if reason := txc.CancellationReasons[0]; reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return storage.ErrVersionConflict
		}
	}
	return fmt.Errorf("wallet event transaction cancelled: %w", txc)
}
