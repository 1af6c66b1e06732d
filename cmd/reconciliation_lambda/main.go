package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/renovalink/escrow-ledger/pkg/audit"
	"github.com/renovalink/escrow-ledger/pkg/ledger"
	"github.com/renovalink/escrow-ledger/pkg/storage"
	dydbstore "github.com/renovalink/escrow-ledger/pkg/storage/dynamodb"
	"github.com/renovalink/escrow-ledger/pkg/webhooks"
)

var store storage.Storage
var ingestor *webhooks.Ingestor

const failedDeliveryThreshold = 15 * time.Minute

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dbClient := dynamodb.NewFromConfig(cfg)
	walletsTable := os.Getenv("DYNAMODB_WALLETS_TABLE_NAME")
	eventsTable := os.Getenv("DYNAMODB_EVENTS_TABLE_NAME")
	auditTable := os.Getenv("DYNAMODB_AUDIT_TABLE_NAME")
	quotesTable := os.Getenv("DYNAMODB_QUOTES_TABLE_NAME")
	deliveriesTable := os.Getenv("DYNAMODB_DELIVERIES_TABLE_NAME")

	if walletsTable == "" || eventsTable == "" || deliveriesTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	store = dydbstore.New(dbClient, walletsTable, eventsTable, auditTable, quotesTable, deliveriesTable)

	// Replays skip signature verification: the signature was already checked
	// when the delivery was first received and recorded.
	ledgerService := ledger.NewService(store, &audit.NoOpRecorder{}, logger)
	ingestor = webhooks.NewIngestor(ledgerService, store, nil, true, logger)
}

// HandleRequest is triggered by an EventBridge Schedule. It re-applies
// deposit deliveries that were acknowledged to the provider but failed to
// apply internally.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting reconciliation process for failed webhook deliveries...")

	failed, err := store.ListFailedDeliveries(ctx, failedDeliveryThreshold)
	if err != nil {
		log.Printf("ERROR: failed to list failed deliveries: %v", err)
		return err
	}

	if len(failed) == 0 {
		log.Println("No failed deliveries found.")
		return nil
	}

	log.Printf("Found %d failed deliveries. Replaying them...", len(failed))

	for _, delivery := range failed {
		if err := ingestor.Replay(ctx, delivery); err != nil {
			log.Printf("ERROR: failed to replay delivery %s: %v", delivery.DeliveryID, err)
			// Continue to the next delivery, don't let one failure stop the whole batch.
			continue
		}
		log.Printf("Successfully replayed delivery %s", delivery.DeliveryID)
	}

	log.Println("Reconciliation process finished.")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
