package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/renovalink/escrow-ledger/pkg/models"
)

// SQSAPI defines the subset of the SQS client used by the recorder.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSRecorder publishes audit entries to an SQS queue. A separate consumer
// persists them, which decouples audit-store failures from the financial
// mutation's caller.
type SQSRecorder struct {
	Client   SQSAPI
	QueueURL string
	Actors   ActorDirectory
	Logger   *slog.Logger
}

// NewSQSRecorder creates a new SQSRecorder. actors may be nil, in which case
// every entry is recorded with role "unknown".
func NewSQSRecorder(client SQSAPI, queueURL string, actors ActorDirectory, logger *slog.Logger) *SQSRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQSRecorder{Client: client, QueueURL: queueURL, Actors: actors, Logger: logger}
}

// Make sure we conform to the interface
var _ Recorder = (*SQSRecorder)(nil)

// Record enriches the event and publishes it to the outbox queue.
func (r *SQSRecorder) Record(ctx context.Context, event Event) error {
	entry := r.buildEntry(ctx, event)

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	_, err = r.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(r.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish audit entry: %w", err)
	}

	return nil
}

func (r *SQSRecorder) buildEntry(ctx context.Context, event Event) *models.AuditEntry {
	entry := &models.AuditEntry{
		EntryID:    uuid.New().String(),
		EventType:  string(event.Type),
		ActorID:    event.ActorID,
		ActorRole:  "unknown",
		TargetType: event.TargetType,
		TargetID:   event.TargetID,
		Amount:     event.Amount,
		Metadata:   event.Metadata,
		CreatedAt:  time.Now().UTC(),
	}

	if r.Actors != nil && event.ActorID != "" {
		role, err := r.Actors.LookupRole(ctx, event.ActorID)
		if err != nil {
			// Enrichment failure degrades the entry, never the operation.
			r.Logger.Warn("actor role lookup failed", "actorId", event.ActorID, "error", err)
		} else {
			entry.ActorRole = role
		}
	}

	if meta, ok := RequestMetaFrom(ctx); ok {
		entry.IP = meta.IP
		entry.UserAgent = meta.UserAgent
	}

	return entry
}
