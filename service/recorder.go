package service

import (
	"context"

	"food-marketplace-api/audit"
	"food-marketplace-api/models"

	"go.uber.org/zap"
)

// recorder writes audit entries after a commit. A failed write is logged and
// never fails the request that produced it.
type recorder struct {
	log    audit.Log
	logger *zap.Logger
}

func (r recorder) record(ctx context.Context, caller Caller, action string, entityID uint, data map[string]any) {
	if r.log == nil {
		return
	}
	entry := audit.Entry{
		Action:    action,
		EntityID:  entityID,
		ActorID:   caller.UserID,
		ActorRole: string(caller.Role),
		Data:      data,
	}
	if err := r.log.Record(ctx, entry); err != nil {
		r.logger.Warn("audit record failed",
			zap.String("action", action),
			zap.Uint("entity_id", entityID),
			zap.Error(err))
	}
}

func statusData(from, to models.OrderStatus) map[string]any {
	return map[string]any{"from": string(from), "to": string(to)}
}
