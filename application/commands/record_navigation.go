package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webtrail/application/services"
	"webtrail/domain/core/entities"
	"webtrail/pkg/utils"
)

// RecordNavigationCommand reports that the browser committed a navigation
type RecordNavigationCommand struct {
	TabID          int    `json:"tab_id" validate:"required"`
	URL            string `json:"url" validate:"required,max=2048"`
	NavigationType string `json:"navigation_type" validate:"omitempty,oneof=link form js typed reload back_forward navigate"`
	OpenTarget     string `json:"open_target" validate:"omitempty,oneof=same_tab new_tab new_window"`
	TimestampMS    int64  `json:"timestamp_ms"`
	SourceFrameID  int    `json:"source_frame_id"`
	ParentFrameID  int    `json:"parent_frame_id"`
	Title          string `json:"title" validate:"max=500"`
}

// Validate validates the command
func (cmd RecordNavigationCommand) Validate() error {
	if cmd.URL == "" {
		return errors.New("url is required")
	}
	if len(cmd.URL) > MaxURLLength {
		return errors.New("url exceeds maximum length")
	}
	return nil
}

const MaxURLLength = 2048

// RecordNavigationHandler handles the RecordNavigationCommand
type RecordNavigationHandler struct {
	tracker *services.Tracker
	logger  *zap.Logger
}

// NewRecordNavigationHandler creates a new handler instance
func NewRecordNavigationHandler(tracker *services.Tracker, logger *zap.Logger) *RecordNavigationHandler {
	return &RecordNavigationHandler{tracker: tracker, logger: logger}
}

// Handle executes the record navigation command
func (h *RecordNavigationHandler) Handle(ctx context.Context, cmd RecordNavigationCommand) (*entities.Node, error) {
	node, err := h.tracker.RecordNavigation(ctx, services.RecordNavigationInput{
		TabID:          cmd.TabID,
		URL:            cmd.URL,
		NavigationType: entities.NavigationType(cmd.NavigationType),
		OpenTarget:     entities.OpenTarget(cmd.OpenTarget),
		Timestamp:      utils.FromUnixMillis(cmd.TimestampMS),
		SourceFrameID:  cmd.SourceFrameID,
		ParentFrameID:  cmd.ParentFrameID,
		Metadata:       entities.Metadata{Title: cmd.Title},
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("navigation recorded",
		zap.Int("tab_id", cmd.TabID),
		zap.String("node_id", node.ID().String()),
	)
	return node, nil
}
