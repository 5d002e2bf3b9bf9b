package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"webtrail/application/commands"
	"webtrail/application/commands/bus"
	"webtrail/application/queries"
	"webtrail/domain/core/entities"
	"webtrail/pkg/common"
	pkgerrors "webtrail/pkg/errors"
	"webtrail/pkg/utils"
)

const maxSignalBody = 64 * 1024

// SignalHandler ingests the three signal types the extension reports:
// committed navigations, navigation intents, and page metadata.
type SignalHandler struct {
	commandBus *bus.CommandBus
	logger     *zap.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(commandBus *bus.CommandBus, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{
		commandBus: commandBus,
		logger:     logger,
	}
}

// RecordNavigation handles POST /signals/navigations
func (h *SignalHandler) RecordNavigation(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RecordNavigationCommand
	if err := common.ParseJSONBody(r, &cmd, maxSignalBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(cmd); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.respondCommandError(w, err, "failed to record navigation")
		return
	}

	node, ok := result.(*entities.Node)
	if !ok {
		common.RespondJSON(w, http.StatusCreated, nil)
		return
	}
	common.RespondJSON(w, http.StatusCreated, queries.NewNodeView(node))
}

// RecordIntent handles POST /signals/intents
func (h *SignalHandler) RecordIntent(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RecordIntentCommand
	if err := common.ParseJSONBody(r, &cmd, maxSignalBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(cmd); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.respondCommandError(w, err, "failed to record intent")
		return
	}

	common.RespondJSON(w, http.StatusAccepted, result)
}

// UpdateMetadata handles POST /signals/metadata
func (h *SignalHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateNodeMetadataCommand
	if err := common.ParseJSONBody(r, &cmd, maxSignalBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(cmd); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.respondCommandError(w, err, "failed to update metadata")
		return
	}

	common.RespondJSON(w, http.StatusAccepted, nil)
}

func (h *SignalHandler) respondCommandError(w http.ResponseWriter, err error, logMsg string) {
	h.logger.Error(logMsg, zap.Error(err))

	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
		return
	}
	common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Internal error")
}
