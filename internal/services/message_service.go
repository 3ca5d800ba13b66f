package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/devsync/teamchat-api/internal/constants"
	"github.com/devsync/teamchat-api/internal/metrics"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
	"github.com/devsync/teamchat-api/internal/utils"
	"github.com/rs/zerolog/log"
)

// EventMessageReceived is delivered to each recipient's user room.
const EventMessageReceived = "message received"

var ErrMessageTooLong = errors.New("message is too long")

// Publisher delivers realtime events to a user's connections.
type Publisher interface {
	PublishToUser(userID uint64, event string, payload any)
}

// MessageService stores chat messages and fans them out to members.
type MessageService struct {
	messages  repository.MessageRepository
	chats     *ChatService
	chatRepo  repository.ChatRepository
	publisher Publisher
}

func NewMessageService(messages repository.MessageRepository, chatRepo repository.ChatRepository, chats *ChatService, publisher Publisher) *MessageService {
	return &MessageService{messages: messages, chats: chats, chatRepo: chatRepo, publisher: publisher}
}

// Send persists content from senderID, makes it the chat's latest message
// and publishes it to every other member.
func (s *MessageService) Send(chatID, senderID uint64, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || chatID == 0 {
		return nil, validationError("content and chatId are required")
	}
	if utf8.RuneCountInString(content) > constants.MaxMessageLength {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrMessageTooLong)
	}

	chat, err := s.chats.RequireMember(chatID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{ChatID: chatID, SenderID: senderID, Content: content}
	if err := s.messages.Create(msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	if err := s.chatRepo.SetLatestMessage(chatID, msg.ID); err != nil {
		return nil, fmt.Errorf("failed to update latest message: %w", err)
	}
	for _, m := range chat.Members {
		if m.UserID == senderID {
			msg.Sender = m.User
			break
		}
	}
	metrics.MessagesTotal.Inc()

	if s.publisher != nil {
		for _, m := range chat.Members {
			if m.UserID == senderID {
				continue
			}
			s.publisher.PublishToUser(m.UserID, EventMessageReceived, msg)
		}
	}
	log.Debug().Uint64("chat_id", chatID).Uint64("user_id", senderID).Uint64("message_id", msg.ID).Msg("message sent")
	return msg, nil
}

// List returns a chat's messages oldest first.
func (s *MessageService) List(chatID, requesterID uint64, params utils.PaginationParams) ([]models.Message, int64, error) {
	if _, err := s.chats.RequireMember(chatID, requesterID); err != nil {
		return nil, 0, err
	}
	msgs, total, err := s.messages.ListByChat(chatID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, total, nil
}
