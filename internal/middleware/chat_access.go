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

// ChatLoader is satisfied by *services.ChatService.
type ChatLoader interface {
	RequireMember(chatID, userID uint64) (*models.Chat, error)
}

// RequireChatAccess checks the user is a member of the :chatId chat and
// stores the loaded chat in the context.
func RequireChatAccess(chats ChatLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID, err := strconv.ParseUint(c.Param("chatId"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid chat ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		chat, err := chats.RequireMember(chatID, userID)
		switch {
		case errors.Is(err, services.ErrChatNotFound), errors.Is(err, services.ErrNotChatMember):
			// 404 for non-members too, so chat existence does not leak
			apierrors.NotFound(c, "Chat not found")
			return
		case err != nil:
			apierrors.InternalError(c, "")
			return
		}

		c.Set(constants.ContextKeyChat, chat)
		c.Next()
	}
}

// GetChat returns the chat stored by RequireChatAccess.
func GetChat(c *gin.Context) (*models.Chat, bool) {
	v, exists := c.Get(constants.ContextKeyChat)
	if !exists {
		return nil, false
	}
	chat, ok := v.(*models.Chat)
	return chat, ok
}
