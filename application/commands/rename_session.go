package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webtrail/domain/sessions"
)

// RenameSessionCommand changes a session's user-facing title
type RenameSessionCommand struct {
	SessionID   string `json:"session_id" validate:"required"`
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Validate validates the command
func (cmd RenameSessionCommand) Validate() error {
	if cmd.SessionID == "" {
		return errors.New("session ID is required")
	}
	if cmd.Title == "" {
		return errors.New("title is required")
	}
	if len(cmd.Title) > MaxSessionTitleLength {
		return errors.New("title exceeds maximum length")
	}
	return nil
}

const MaxSessionTitleLength = 200

// RenameSessionHandler handles the RenameSessionCommand
type RenameSessionHandler struct {
	manager *sessions.Manager
	logger  *zap.Logger
}

// NewRenameSessionHandler creates a new handler instance
func NewRenameSessionHandler(manager *sessions.Manager, logger *zap.Logger) *RenameSessionHandler {
	return &RenameSessionHandler{manager: manager, logger: logger}
}

// Handle executes the rename session command
func (h *RenameSessionHandler) Handle(ctx context.Context, cmd RenameSessionCommand) error {
	return h.manager.UpdateSession(cmd.SessionID, cmd.Title, cmd.Description)
}
