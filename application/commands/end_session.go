package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webtrail/application/services"
)

// EndSessionCommand closes a browsing session before the segmentation
// policy would
type EndSessionCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the command
func (cmd EndSessionCommand) Validate() error {
	if cmd.SessionID == "" {
		return errors.New("session ID is required")
	}
	return nil
}

// EndSessionHandler handles the EndSessionCommand
type EndSessionHandler struct {
	tracker *services.Tracker
	logger  *zap.Logger
}

// NewEndSessionHandler creates a new handler instance
func NewEndSessionHandler(tracker *services.Tracker, logger *zap.Logger) *EndSessionHandler {
	return &EndSessionHandler{tracker: tracker, logger: logger}
}

// Handle executes the end session command
func (h *EndSessionHandler) Handle(ctx context.Context, cmd EndSessionCommand) error {
	if err := h.tracker.EndSession(ctx, cmd.SessionID); err != nil {
		return err
	}
	h.logger.Info("session ended", zap.String("session_id", cmd.SessionID))
	return nil
}
