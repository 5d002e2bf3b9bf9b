package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webtrail/application/services"
	"webtrail/domain/core/entities"
)

// UpdateNodeMetadataCommand enriches an existing node with page metadata
type UpdateNodeMetadataCommand struct {
	NodeID      string `json:"node_id" validate:"required"`
	Title       string `json:"title" validate:"max=500"`
	Description string `json:"description" validate:"max=2000"`
	FaviconURL  string `json:"favicon_url" validate:"omitempty,max=2048"`
	Source      string `json:"source" validate:"required,oneof=navigation_event browser_api content_script"`
}

// Validate validates the command
func (cmd UpdateNodeMetadataCommand) Validate() error {
	if cmd.NodeID == "" {
		return errors.New("node ID is required")
	}
	return nil
}

// UpdateNodeMetadataHandler handles the UpdateNodeMetadataCommand
type UpdateNodeMetadataHandler struct {
	tracker *services.Tracker
	logger  *zap.Logger
}

// NewUpdateNodeMetadataHandler creates a new handler instance
func NewUpdateNodeMetadataHandler(tracker *services.Tracker, logger *zap.Logger) *UpdateNodeMetadataHandler {
	return &UpdateNodeMetadataHandler{tracker: tracker, logger: logger}
}

// Handle executes the update metadata command. Unknown nodes are
// swallowed: metadata can legitimately arrive for pages the graph never
// recorded.
func (h *UpdateNodeMetadataHandler) Handle(ctx context.Context, cmd UpdateNodeMetadataCommand) error {
	source := entities.ParseMetadataSource(cmd.Source)

	h.tracker.UpdateNodeMetadata(ctx, cmd.NodeID, entities.Metadata{
		Title:       cmd.Title,
		Description: cmd.Description,
		FaviconURL:  cmd.FaviconURL,
	}, source)

	return nil
}
