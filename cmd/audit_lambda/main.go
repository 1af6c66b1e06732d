package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/renovalink/escrow-ledger/pkg/models"
	"github.com/renovalink/escrow-ledger/pkg/storage"
	dydbstore "github.com/renovalink/escrow-ledger/pkg/storage/dynamodb"
)

type consumer struct {
	store storage.AuditWriter
}

// HandleRequest drains the audit outbox queue into the audit table. Entries
// are idempotent on entry_id, so SQS at-least-once delivery is safe.
func (c *consumer) HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var entry models.AuditEntry
		if err := json.Unmarshal([]byte(message.Body), &entry); err != nil {
			// A malformed body will never unmarshal on retry; skip it so the
			// queue keeps draining.
			log.Printf("ERROR: failed to unmarshal audit entry from SQS message %s, skipping: %v", message.MessageId, err)
			continue
		}

		if err := c.store.PutAuditEntry(ctx, &entry); err != nil {
			log.Printf("ERROR: failed to persist audit entry %s: %v", entry.EntryID, err)
			// Persistence failures are transient; let SQS redeliver.
			return err
		}

		log.Printf("Successfully persisted audit entry %s", entry.EntryID)
	}

	return nil
}

func main() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	walletsTable := os.Getenv("DYNAMODB_WALLETS_TABLE_NAME")
	eventsTable := os.Getenv("DYNAMODB_EVENTS_TABLE_NAME")
	auditTable := os.Getenv("DYNAMODB_AUDIT_TABLE_NAME")
	quotesTable := os.Getenv("DYNAMODB_QUOTES_TABLE_NAME")
	deliveriesTable := os.Getenv("DYNAMODB_DELIVERIES_TABLE_NAME")

	if walletsTable == "" || eventsTable == "" || auditTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	c := &consumer{
		store: dydbstore.New(dbClient, walletsTable, eventsTable, auditTable, quotesTable, deliveriesTable),
	}
	lambda.Start(c.HandleRequest)
}
