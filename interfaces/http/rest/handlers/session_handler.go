package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"webtrail/application/commands"
	"webtrail/application/commands/bus"
	"webtrail/application/queries"
	querybus "webtrail/application/queries/bus"
	"webtrail/pkg/common"
	pkgerrors "webtrail/pkg/errors"
	"webtrail/pkg/utils"
)

// SessionHandler serves session lifecycle requests
type SessionHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// GetActiveSession handles GET /sessions/active
func (h *SessionHandler) GetActiveSession(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetActiveSessionQuery{})
	if err != nil {
		h.respondError(w, err, "failed to get active session")
		return
	}

	view, ok := result.(*queries.SessionView)
	if !ok || view == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "No active session")
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// ListSessions handles GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	query := queries.ListSessionsQuery{
		IncludeNodes: r.URL.Query().Get("include_nodes") == "true",
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.respondError(w, err, "failed to list sessions")
		return
	}

	views, _ := result.([]queries.SessionView)
	common.RespondWithMeta(w, http.StatusOK, views, &common.MetaInfo{Count: len(views)})
}

// GetSession handles GET /sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	query := queries.GetSessionQuery{
		SessionID:  chi.URLParam(r, "sessionID"),
		MarkViewed: r.URL.Query().Get("viewed") == "true",
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.respondError(w, err, "failed to get session")
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// EndSession handles POST /sessions/{sessionID}/end
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	cmd := commands.EndSessionCommand{SessionID: chi.URLParam(r, "sessionID")}

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondError(w, err, "failed to end session")
		return
	}
	common.RespondJSON(w, http.StatusOK, nil)
}

// RenameSession handles PUT /sessions/{sessionID}
func (h *SessionHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RenameSessionCommand
	if err := common.ParseJSONBody(r, &cmd, maxSignalBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body")
		return
	}
	cmd.SessionID = chi.URLParam(r, "sessionID")

	if err := utils.ValidateStruct(cmd); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondError(w, err, "failed to rename session")
		return
	}
	common.RespondJSON(w, http.StatusOK, nil)
}

// DeleteSession handles DELETE /sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeleteSessionCommand{SessionID: chi.URLParam(r, "sessionID")}

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondError(w, err, "failed to delete session")
		return
	}
	common.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *SessionHandler) respondError(w http.ResponseWriter, err error, logMsg string) {
	h.logger.Error(logMsg, zap.Error(err))

	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
		return
	}
	common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Internal error")
}
