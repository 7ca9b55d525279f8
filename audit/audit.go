// Package audit records order lifecycle events outside the transactional
// status history.
package audit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	ActionOrderPlaced    = "order_placed"
	ActionStatusUpdated  = "order_status_updated"
	ActionOrderClaimed   = "order_claimed"
	ActionOrderCancelled = "order_cancelled"
	ActionOrderDelivered = "order_delivered"
	ActionRestaurantGone = "restaurant_deleted"
)

// OrderActions are the actions whose EntityID is an order ID.
var OrderActions = []string{
	ActionOrderPlaced,
	ActionStatusUpdated,
	ActionOrderClaimed,
	ActionOrderCancelled,
	ActionOrderDelivered,
}

type Entry struct {
	Action    string         `json:"action" bson:"action"`
	EntityID  uint           `json:"entity_id" bson:"entity_id"`
	ActorID   uint           `json:"actor_id" bson:"actor_id"`
	ActorRole string         `json:"actor_role" bson:"actor_role"`
	Data      map[string]any `json:"data,omitempty" bson:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

type Log interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader returns stored entries for an entity, newest first. An empty
// actions list matches every action.
type Reader interface {
	Entries(ctx context.Context, entityID uint, actions []string, limit int64) ([]Entry, error)
}

// ZapLog writes entries to the application logger.
type ZapLog struct {
	logger *zap.Logger
}

func NewZapLog(logger *zap.Logger) *ZapLog {
	return &ZapLog{logger: logger.Named("audit")}
}

func (l *ZapLog) Record(_ context.Context, entry Entry) error {
	l.logger.Info(entry.Action,
		zap.Uint("entity_id", entry.EntityID),
		zap.Uint("actor_id", entry.ActorID),
		zap.String("actor_role", entry.ActorRole),
		zap.Any("data", entry.Data),
	)
	return nil
}

// Multi fans an entry out to every log and joins their errors.
type Multi []Log

func (m Multi) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	var errs []error
	for _, l := range m {
		if err := l.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
