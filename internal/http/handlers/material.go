package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/http/response"
	"github.com/yungbote/materials-registry/internal/platform/logger"
	"github.com/yungbote/materials-registry/internal/services"
)

type MaterialHandler struct {
	log       *logger.Logger
	materials services.MaterialService
}

func NewMaterialHandler(log *logger.Logger, materials services.MaterialService) *MaterialHandler {
	return &MaterialHandler{
		log:       log.With("handler", "MaterialHandler"),
		materials: materials,
	}
}

// POST /api/materials
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	actor := actorID(c)
	if actor == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "missing_actor_id", nil)
		return
	}
	payload, cleanup, err := readMaterialPayload(c)
	defer cleanup()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	res, err := h.materials.CreateMaterial(c.Request.Context(), services.CreateMaterialInput{
		ActorID:                  actor,
		Name:                     payload.Name,
		Description:              payload.Description,
		TagIDs:                   payload.TagIDs,
		OrderedCharacteristicIDs: payload.OrderedCharacteristicIDs,
		Values:                   payload.valueInputs(),
	})
	if err != nil {
		h.log.Warn("CreateMaterial failed", "actor_id", actor, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// PATCH /api/materials/:id
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	actor := actorID(c)
	if actor == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "missing_actor_id", nil)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	version, err := expectedVersion(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_version", err)
		return
	}
	payload, cleanup, err := readMaterialPayload(c)
	defer cleanup()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}
	if payload.ExpectedVersion > 0 {
		version = payload.ExpectedVersion
	}

	res, err := h.materials.UpdateMaterial(c.Request.Context(), services.UpdateMaterialInput{
		ActorID:                  actor,
		MaterialID:               id,
		Name:                     payload.Name,
		Description:              payload.Description,
		ExpectedVersion:          version,
		TagIDs:                   payload.TagIDs,
		OrderedCharacteristicIDs: payload.OrderedCharacteristicIDs,
		Values:                   payload.valueInputs(),
	})
	if err != nil {
		h.log.Warn("UpdateMaterial failed", "material_id", id, "actor_id", actor, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/materials/:id
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	view, err := h.materials.GetMaterial(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"material": view})
}

// DELETE /api/materials/:id
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	actor := actorID(c)
	if actor == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "missing_actor_id", nil)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_material_id", err)
		return
	}
	version, err := expectedVersion(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_version", err)
		return
	}
	if err := h.materials.DeleteMaterial(c.Request.Context(), services.DeleteMaterialInput{
		ActorID:         actor,
		MaterialID:      id,
		ExpectedVersion: version,
	}); err != nil {
		h.log.Warn("DeleteMaterial failed", "material_id", id, "actor_id", actor, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
