package handlers

import (
	"net/http"

	"github.com/devsync/teamchat-api/internal/dto"
	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/devsync/teamchat-api/internal/utils"
	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send stores a message and pushes it to the other members
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
		ChatID  uint64 `json:"chatId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid data passed into request")
		return
	}

	msg, err := h.messageService.Send(req.ChatID, userID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMessageDTO(*msg))
}

// List returns a page of messages, oldest first
func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	chatID, ok := paramID(c, "chatId")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	msgs, total, err := h.messageService.List(chatID, userID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.MessageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = dto.ToMessageDTO(m)
	}
	c.JSON(http.StatusOK, dto.MessageListResponse{
		Messages:   out,
		Pagination: params.Response(total),
	})
}
