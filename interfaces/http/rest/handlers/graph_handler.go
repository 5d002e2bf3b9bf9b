package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"webtrail/application/queries"
	querybus "webtrail/application/queries/bus"
	"webtrail/pkg/common"
	pkgerrors "webtrail/pkg/errors"
)

// GraphHandler serves navigation graph reads
type GraphHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// GetGraph handles GET /graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	query := queries.GetGraphDataQuery{
		SessionID: r.URL.Query().Get("session_id"),
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to get graph data", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to get graph data")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetNode handles GET /graph/nodes/{nodeID}
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	query := queries.GetNodeQuery{
		NodeID: chi.URLParam(r, "nodeID"),
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
			return
		}
		h.logger.Error("failed to get node", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "Failed to get node")
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
