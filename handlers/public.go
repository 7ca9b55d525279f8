package handlers

import (
	"net/http"

	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health reports whether the database is reachable
func (h *Handler) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": "Food Marketplace API",
		"version": "1.0.0",
	})
}

// GetStateMachineInfo returns the order lifecycle for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	var terminal []models.OrderStatus
	for _, st := range models.OrderStatuses {
		if statemachine.IsTerminal(st) {
			terminal = append(terminal, st)
		}
	}
	respondOK(c, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"statuses":        models.OrderStatuses,
		"terminal_states": terminal,
		"claimed_state":   models.StatusClaimed,
		"description":     "Owners and admins may set any status; customer and rider actions follow these edges",
	})
}
