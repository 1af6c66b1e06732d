package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
	"github.com/renovalink/escrow-ledger/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestStore(client *mocks.DynamoDBAPI) *Store {
	return New(client, "wallets", "events", "audit", "quotes", "deliveries")
}

func TestCreateWallet(t *testing.T) {
	wallet := &models.Wallet{ProjectID: "proj-1", Status: models.WalletPending, Version: 1}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

		store := newTestStore(mockClient)
		createdWallet, err := store.CreateWallet(context.Background(), wallet)

		assert.NoError(t, err)
		assert.Equal(t, wallet, createdWallet)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Exists Returns Existing", func(t *testing.T) {
		existing := &models.Wallet{ProjectID: "proj-1", Status: models.WalletActive, Balance: 5000, Version: 3}
		existingAV, _ := attributevalue.MarshalMap(existing)

		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: existingAV}, nil)

		store := newTestStore(mockClient)
		createdWallet, err := store.CreateWallet(context.Background(), wallet)

		assert.NoError(t, err)
		assert.Equal(t, int64(5000), createdWallet.Balance)
		assert.Equal(t, int64(3), createdWallet.Version)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := newTestStore(mockClient)
		_, err := store.CreateWallet(context.Background(), wallet)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create wallet in DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestGetWallet(t *testing.T) {
	projectID := "proj-1"

	t.Run("Success", func(t *testing.T) {
		wallet := &models.Wallet{ProjectID: projectID, Balance: 100, Reserved: 50, Version: 2}
		walletAV, _ := attributevalue.MarshalMap(wallet)

		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil)

		store := newTestStore(mockClient)
		retrievedWallet, err := store.GetWallet(context.Background(), projectID)

		assert.NoError(t, err)
		assert.Equal(t, wallet.Balance, retrievedWallet.Balance)
		assert.Equal(t, wallet.Reserved, retrievedWallet.Reserved)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := newTestStore(mockClient)
		_, err := store.GetWallet(context.Background(), projectID)

		assert.ErrorIs(t, err, storage.ErrWalletNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestListWallets(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		wallets := []models.Wallet{
			{ProjectID: "proj-1", Balance: 100},
			{ProjectID: "proj-2", Balance: 200},
		}
		items := make([]map[string]types.AttributeValue, len(wallets))
		for i, w := range wallets {
			items[i], _ = attributevalue.MarshalMap(w)
		}

		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{Items: items}, nil)

		store := newTestStore(mockClient)
		retrieved, err := store.ListWallets(context.Background())

		assert.NoError(t, err)
		assert.Len(t, retrieved, 2)
		mockClient.AssertExpectations(t)
	})
}
