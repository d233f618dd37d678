package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/http/response"
	"github.com/yungbote/materials-registry/internal/platform/logger"
	"github.com/yungbote/materials-registry/internal/services"
)

type TagHandler struct {
	log  *logger.Logger
	tags services.TagService
}

func NewTagHandler(log *logger.Logger, tags services.TagService) *TagHandler {
	return &TagHandler{
		log:  log.With("handler", "TagHandler"),
		tags: tags,
	}
}

type updateTagRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=200"`
	Color     *string `json:"color" binding:"omitempty,max=32"`
	FontColor *string `json:"fontColor" binding:"omitempty,max=32"`
}

// PATCH /api/tags/:id
func (h *TagHandler) UpdateTag(c *gin.Context) {
	actor := actorID(c)
	if actor == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "missing_actor_id", nil)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_tag_id", err)
		return
	}
	var req updateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	res, err := h.tags.UpdateTag(c.Request.Context(), services.UpdateTagInput{
		ActorID:   actor,
		TagID:     id,
		Name:      req.Name,
		Color:     req.Color,
		FontColor: req.FontColor,
	})
	if err != nil {
		h.log.Warn("UpdateTag failed", "tag_id", id, "actor_id", actor, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
