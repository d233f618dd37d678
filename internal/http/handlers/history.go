package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/materials-registry/internal/http/response"
	"github.com/yungbote/materials-registry/internal/platform/logger"
	"github.com/yungbote/materials-registry/internal/services"
)

type HistoryHandler struct {
	log     *logger.Logger
	history services.HistoryService
}

func NewHistoryHandler(log *logger.Logger, history services.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		log:     log.With("handler", "HistoryHandler"),
		history: history,
	}
}

// GET /api/materials/:id/history
func (h *HistoryHandler) ListMaterialHistory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	records, err := h.history.ListHistory(c.Request.Context(), id, listLimit(c))
	if err != nil {
		h.log.Error("ListMaterialHistory failed", "material_id", id, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"records": records})
}

// GET /api/history/:id
func (h *HistoryHandler) GetHistoryRecord(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_history_id", err)
		return
	}
	rec, err := h.history.GetHistoryRecord(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"record": rec})
}
