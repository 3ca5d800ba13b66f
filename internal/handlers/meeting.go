package handlers

import (
	"net/http"

	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/middleware"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/gin-gonic/gin"
)

type MeetingHandler struct {
	meetingService *services.MeetingService
}

func NewMeetingHandler(meetingService *services.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService}
}

// JoinOrCreate returns the chat's meeting, creating it on first use
func (h *MeetingHandler) JoinOrCreate(c *gin.Context) {
	chat, ok := middleware.GetChat(c)
	if !ok {
		apierrors.InternalError(c, "Chat not found in context")
		return
	}

	meeting, err := h.meetingService.JoinOrCreate(c.Request.Context(), chat)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meetingId": meeting.ID,
		"joinUrl":   meeting.JoinURL,
		"password":  meeting.Password,
	})
}
