package handlers

import (
	"net/http"

	"github.com/devsync/teamchat-api/internal/dto"
	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/middleware"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/gin-gonic/gin"
)

// PhaseHandler serves the phases of a chat. Routes run behind
// RequireChatAccess.
type PhaseHandler struct {
	phaseService *services.PhaseService
}

func NewPhaseHandler(phaseService *services.PhaseService) *PhaseHandler {
	return &PhaseHandler{phaseService: phaseService}
}

func (h *PhaseHandler) AddPhase(c *gin.Context) {
	chat, ok := middleware.GetChat(c)
	if !ok {
		apierrors.InternalError(c, "Chat not found in context")
		return
	}

	var req struct {
		PhaseName string `json:"phaseName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "phaseName is required")
		return
	}

	phase, err := h.phaseService.AddPhase(chat.ID, req.PhaseName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToPhaseDTO(*phase))
}

func (h *PhaseHandler) ListPhases(c *gin.Context) {
	chat, ok := middleware.GetChat(c)
	if !ok {
		apierrors.InternalError(c, "Chat not found in context")
		return
	}

	phases, err := h.phaseService.ListPhases(chat.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPhaseDTOs(phases))
}

// DeletePhase removes a phase whose tasks are all completed
func (h *PhaseHandler) DeletePhase(c *gin.Context) {
	chat, ok := middleware.GetChat(c)
	if !ok {
		apierrors.InternalError(c, "Chat not found in context")
		return
	}
	phaseID, ok := paramID(c, "phaseId")
	if !ok {
		return
	}

	if err := h.phaseService.DeletePhase(chat.ID, phaseID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phase deleted successfully"})
}
