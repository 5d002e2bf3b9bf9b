package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webtrail/application/services"
	"webtrail/domain/core/entities"
	"webtrail/domain/core/valueobjects"
	"webtrail/pkg/utils"
)

// RecordIntentCommand reports a user-initiated navigation observed in a
// page context before the browser commits it
type RecordIntentCommand struct {
	Type         string                 `json:"type" validate:"omitempty,oneof=link form js typed reload back_forward navigate"`
	SourceNodeID string                 `json:"source_node_id"`
	SourceURL    string                 `json:"source_url" validate:"omitempty,max=2048"`
	TargetURL    string                 `json:"target_url" validate:"required,max=2048"`
	Payload      map[string]interface{} `json:"payload"`
	SourceTabID  int                    `json:"source_tab_id" validate:"required"`
	TargetTabID  int                    `json:"target_tab_id"`
	IsNewTab     bool                   `json:"is_new_tab"`
	TimestampMS  int64                  `json:"timestamp_ms"`
}

// Validate validates the command
func (cmd RecordIntentCommand) Validate() error {
	if cmd.TargetURL == "" {
		return errors.New("target url is required")
	}
	if len(cmd.TargetURL) > MaxURLLength {
		return errors.New("target url exceeds maximum length")
	}
	return nil
}

// RecordIntentHandler handles the RecordIntentCommand
type RecordIntentHandler struct {
	tracker *services.Tracker
	logger  *zap.Logger
}

// NewRecordIntentHandler creates a new handler instance
func NewRecordIntentHandler(tracker *services.Tracker, logger *zap.Logger) *RecordIntentHandler {
	return &RecordIntentHandler{tracker: tracker, logger: logger}
}

// Handle executes the record intent command
func (h *RecordIntentHandler) Handle(ctx context.Context, cmd RecordIntentCommand) (*entities.PendingNavigation, error) {
	sourceNodeID := valueobjects.NodeID{}
	if cmd.SourceNodeID != "" {
		id, err := valueobjects.NewNodeIDFromString(cmd.SourceNodeID)
		if err != nil {
			// An unusable source id degrades to URL-based source resolution
			h.logger.Warn("intent with unusable source node id",
				zap.String("source_node_id", cmd.SourceNodeID),
			)
		} else {
			sourceNodeID = id
		}
	}

	return h.tracker.RecordIntent(ctx, entities.PendingNavigationOptions{
		Type:         entities.NavigationType(cmd.Type),
		SourceNodeID: sourceNodeID,
		SourceURL:    cmd.SourceURL,
		TargetURL:    cmd.TargetURL,
		Payload:      cmd.Payload,
		SourceTabID:  cmd.SourceTabID,
		TargetTabID:  cmd.TargetTabID,
		IsNewTab:     cmd.IsNewTab,
		CreatedAt:    utils.FromUnixMillis(cmd.TimestampMS),
	})
}
