package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webtrail/domain/sessions"
)

// DeleteSessionCommand removes an ended session from the registry
type DeleteSessionCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the command
func (cmd DeleteSessionCommand) Validate() error {
	if cmd.SessionID == "" {
		return errors.New("session ID is required")
	}
	return nil
}

// DeleteSessionHandler handles the DeleteSessionCommand
type DeleteSessionHandler struct {
	manager *sessions.Manager
	logger  *zap.Logger
}

// NewDeleteSessionHandler creates a new handler instance
func NewDeleteSessionHandler(manager *sessions.Manager, logger *zap.Logger) *DeleteSessionHandler {
	return &DeleteSessionHandler{manager: manager, logger: logger}
}

// Handle executes the delete session command
func (h *DeleteSessionHandler) Handle(ctx context.Context, cmd DeleteSessionCommand) error {
	if err := h.manager.DeleteSession(cmd.SessionID); err != nil {
		return err
	}
	h.logger.Info("session deleted", zap.String("session_id", cmd.SessionID))
	return nil
}
