package middleware

import (
	"errors"
	"strconv"

	"github.com/devsync/teamchat-api/internal/constants"
	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/gin-gonic/gin"
)

// PhaseLoader is satisfied by *services.PhaseService.
type PhaseLoader interface {
	GetPhase(phaseID uint64) (*models.Phase, error)
}

// RequirePhaseAccess loads the :phaseId phase and checks the user is a
// member of the phase's chat.
func RequirePhaseAccess(phases PhaseLoader, chats ChatLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		phaseID, err := strconv.ParseUint(c.Param("phaseId"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid phase ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		phase, err := phases.GetPhase(phaseID)
		if err != nil {
			if errors.Is(err, services.ErrPhaseNotFound) {
				apierrors.NotFound(c, "Phase not found")
				return
			}
			apierrors.InternalError(c, "")
			return
		}

		chat, err := chats.RequireMember(phase.ChatID, userID)
		if err != nil {
			// Return 404 instead of 403 to avoid leaking phase existence
			if errors.Is(err, services.ErrChatNotFound) || errors.Is(err, services.ErrNotChatMember) {
				apierrors.NotFound(c, "Phase not found")
				return
			}
			apierrors.InternalError(c, "")
			return
		}

		c.Set(constants.ContextKeyPhase, phase)
		c.Set(constants.ContextKeyChat, chat)
		c.Next()
	}
}

// GetPhase returns the phase stored by RequirePhaseAccess.
func GetPhase(c *gin.Context) (*models.Phase, bool) {
	v, exists := c.Get(constants.ContextKeyPhase)
	if !exists {
		return nil, false
	}
	phase, ok := v.(*models.Phase)
	return phase, ok
}
