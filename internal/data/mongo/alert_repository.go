package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voucher-sync-ledger/internal/domain/alert"
)

const (
	// AlertCollectionName is the name of the alert collection in MongoDB
	AlertCollectionName = "voucher_alerts"
)

// AlertRepository implements alert.Repository for MongoDB
type AlertRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAlertRepository creates a new MongoDB alert repository
func NewAlertRepository(logger *slog.Logger, db *mongo.Database) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique (subscriber_id, event_id) index that makes Create idempotent.
func (r *AlertRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(AlertCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriber_id", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_subscriber_event"),
		},
		{
			Keys:    bson.D{{Key: "subscriber_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_subscriber_created"),
		},
	})
	if err != nil {
		r.logger.Error("Failed to create alert indexes", "error", err)
		return fmt.Errorf("failed to create alert indexes: %w", err)
	}

	return nil
}

// Create stores the alert. A second alert for the same subscriber and event
// returns ErrDuplicateAlert.
func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	collection := r.db.Collection(AlertCollectionName)

	_, err := collection.InsertOne(ctx, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return alert.ErrDuplicateAlert{SubscriberID: a.SubscriberID, EventID: a.EventID}
		}
		r.logger.Error("Failed to create alert",
			"subscriber_id", a.SubscriberID,
			"event_id", a.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// ListBySubscriber returns the subscriber's newest alerts first
func (r *AlertRepository) ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]*alert.Alert, error) {
	collection := r.db.Collection(AlertCollectionName)

	filter := bson.M{"subscriber_id": subscriberID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list alerts",
			"subscriber_id", subscriberID,
			"error", err)
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer cursor.Close(ctx)

	alerts := []*alert.Alert{}
	if err := cursor.All(ctx, &alerts); err != nil {
		r.logger.Error("Failed to decode alerts", "error", err)
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}

	return alerts, nil
}
