package queries

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"webtrail/application/services"
)

// GetActiveSessionQuery asks for the currently active session
type GetActiveSessionQuery struct{}

// Validate validates the query
func (q GetActiveSessionQuery) Validate() error { return nil }

// GetActiveSessionHandler handles the GetActiveSessionQuery
type GetActiveSessionHandler struct {
	tracker *services.Tracker
	logger  *zap.Logger
}

// NewGetActiveSessionHandler creates a new handler instance
func NewGetActiveSessionHandler(tracker *services.Tracker, logger *zap.Logger) *GetActiveSessionHandler {
	return &GetActiveSessionHandler{tracker: tracker, logger: logger}
}

// Handle returns the active session view, or nil when no session is
// active yet
func (h *GetActiveSessionHandler) Handle(ctx context.Context, q GetActiveSessionQuery) (*SessionView, error) {
	active := h.tracker.ActiveSession()
	if active == nil {
		return nil, nil
	}
	view := NewSessionView(active, true)
	return &view, nil
}

// ListSessionsQuery asks for all known sessions
type ListSessionsQuery struct {
	IncludeNodes bool `json:"include_nodes"`
}

// Validate validates the query
func (q ListSessionsQuery) Validate() error { return nil }

// ListSessionsHandler handles the ListSessionsQuery
type ListSessionsHandler struct {
	tracker *services.Tracker
	logger  *zap.Logger
}

// NewListSessionsHandler creates a new handler instance
func NewListSessionsHandler(tracker *services.Tracker, logger *zap.Logger) *ListSessionsHandler {
	return &ListSessionsHandler{tracker: tracker, logger: logger}
}

// Handle returns views for every session, active first then newest first
func (h *ListSessionsHandler) Handle(ctx context.Context, q ListSessionsQuery) ([]SessionView, error) {
	all := h.tracker.Sessions()
	views := make([]SessionView, 0, len(all))
	for _, s := range all {
		views = append(views, NewSessionView(s, q.IncludeNodes))
	}
	return views, nil
}

// GetSessionQuery asks for one session by id
type GetSessionQuery struct {
	SessionID string `json:"session_id" validate:"required"`

	// MarkViewed emits a viewed notification as a side effect, used when
	// the UI opens a session detail page
	MarkViewed bool `json:"mark_viewed"`
}

// Validate validates the query
func (q GetSessionQuery) Validate() error {
	if q.SessionID == "" {
		return errors.New("session ID is required")
	}
	return nil
}

// GetSessionHandler handles the GetSessionQuery
type GetSessionHandler struct {
	tracker *services.Tracker
	viewer  SessionViewer
	logger  *zap.Logger
}

// SessionViewer records that a session was opened in the UI
type SessionViewer interface {
	MarkViewed(id string)
}

// NewGetSessionHandler creates a new handler instance
func NewGetSessionHandler(tracker *services.Tracker, viewer SessionViewer, logger *zap.Logger) *GetSessionHandler {
	return &GetSessionHandler{tracker: tracker, viewer: viewer, logger: logger}
}

// Handle returns one session view
func (h *GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (*SessionView, error) {
	s, err := h.tracker.Session(q.SessionID)
	if err != nil {
		return nil, err
	}
	if q.MarkViewed && h.viewer != nil {
		h.viewer.MarkViewed(q.SessionID)
	}
	view := NewSessionView(s, true)
	return &view, nil
}
