package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/renovalink/escrow-ledger/pkg/audit"
	ledgerhandlers "github.com/renovalink/escrow-ledger/pkg/handlers/ledger"
	"github.com/renovalink/escrow-ledger/pkg/handlers/quotes"
	"github.com/renovalink/escrow-ledger/pkg/handlers/wallets"
	webhookhandlers "github.com/renovalink/escrow-ledger/pkg/handlers/webhooks"
	"github.com/renovalink/escrow-ledger/pkg/ledger"
	"github.com/renovalink/escrow-ledger/pkg/middleware"
	"github.com/renovalink/escrow-ledger/pkg/reconcile"
	dydbstore "github.com/renovalink/escrow-ledger/pkg/storage/dynamodb"
	"github.com/renovalink/escrow-ledger/pkg/webhooks"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// AWS Session
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

	if walletsTable == "" || eventsTable == "" || auditTable == "" || quotesTable == "" || deliveriesTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	store := dydbstore.New(dbClient, walletsTable, eventsTable, auditTable, quotesTable, deliveriesTable)

	// SQS client and audit outbox publisher
	sqsClient := sqs.NewFromConfig(cfg)
	auditQueueURL := os.Getenv("SQS_AUDIT_QUEUE_URL")
	if auditQueueURL == "" {
		log.Fatal("SQS_AUDIT_QUEUE_URL environment variable not set")
	}
	recorder := audit.NewSQSRecorder(sqsClient, auditQueueURL, nil, logger)

	// Core services
	ledgerService := ledger.NewService(store, recorder, logger)
	reconciler := reconcile.NewReconciler(store, store, logger)

	// Webhook ingestion. Signature verification can only be bypassed outside
	// production.
	secrets := parseWebhookSecrets(os.Getenv("WEBHOOK_SECRETS"))
	bypass := os.Getenv("WEBHOOK_SIGNATURE_BYPASS") == "true" && os.Getenv("ENVIRONMENT") != "production"
	if bypass {
		logger.Warn("webhook signature verification is bypassed")
	} else if len(secrets) == 0 {
		log.Fatal("WEBHOOK_SECRETS environment variable not set")
	}
	ingestor := webhooks.NewIngestor(ledgerService, store, secrets, bypass, logger)
	esign := webhooks.NewEsignProcessor(&webhooks.LogContractUpdater{Logger: logger}, reconciler, logger)

	// Handlers
	walletsHandler := wallets.NewWalletsHandler(ledgerService)
	ledgerHandler := ledgerhandlers.NewLedgerHandler(store)
	quotesHandler := quotes.NewQuotesHandler(reconciler, logger)
	webhooksHandler := webhookhandlers.NewWebhooksHandler(ingestor, esign)

	// Create a new Chi router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Use(middleware.RequestMetadata)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/wallets", func(r chi.Router) {
		r.Post("/", walletsHandler.CreateWallet)
		r.Get("/", walletsHandler.ListWallets)
		r.Route("/{projectId}", func(r chi.Router) {
			r.Get("/", withProjectID(walletsHandler.GetWalletByProjectId))
			r.Post("/freeze", withProjectID(walletsHandler.Freeze))
			r.Post("/unfreeze", withProjectID(walletsHandler.Unfreeze))
			r.Post("/close", withProjectID(walletsHandler.Close))
			r.Post("/withdraw", withProjectID(walletsHandler.Withdraw))
			r.Post("/reserve", withProjectID(walletsHandler.Reserve))
			r.Post("/release", withProjectID(walletsHandler.Release))
			r.Post("/adjust", withProjectID(walletsHandler.Adjust))
			r.Get("/events", withProjectID(ledgerHandler.ListLedgerEvents))
		})
	})

	router.Get("/audit", ledgerHandler.ListAudit)

	router.Route("/quotes/{quoteId}", func(r chi.Router) {
		r.Post("/revisions", withQuoteID(quotesHandler.CreateRevision))
		r.Get("/signing-gate", withQuoteID(quotesHandler.GetSigningGate))
	})

	router.Post("/webhooks/escrow/deposit", webhooksHandler.HandleDeposit)
	router.Post("/webhooks/esign/callback", webhooksHandler.HandleEsignCallback)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	log.Printf("Starting server on port %s", port)

	// Start the server
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func withProjectID(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, chi.URLParam(r, "projectId"))
	}
}

func withQuoteID(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, chi.URLParam(r, "quoteId"))
	}
}

// parseWebhookSecrets parses "provider=secret,provider2=secret2".
func parseWebhookSecrets(raw string) map[string]string {
	secrets := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, secret, ok := strings.Cut(pair, "=")
		if !ok || name == "" || secret == "" {
			continue
		}
		secrets[name] = secret
	}
	return secrets
}
