package dto

import (
	"time"

	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/devsync/teamchat-api/internal/utils"
)

// MessageDTO represents a chat message in API responses
type MessageDTO struct {
	ID        uint64    `json:"id"`
	ChatID    uint64    `json:"chat_id"`
	Content   string    `json:"content"`
	Sender    UserDTO   `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatDTO represents a chat in API responses
type ChatDTO struct {
	ID             uint64      `json:"id"`
	ChatName       string      `json:"chat_name"`
	IsGroupChat    bool        `json:"is_group_chat"`
	RepositoryName string      `json:"repository_name,omitempty"`
	Users          []UserDTO   `json:"users"`
	GroupAdmin     *UserDTO    `json:"group_admin,omitempty"`
	LatestMessage  *MessageDTO `json:"latest_message,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// GroupChatResponse is returned when a repository-backed group is created
type GroupChatResponse struct {
	Chat     ChatDTO                  `json:"chat"`
	Owner    string                   `json:"owner"`
	Branches []services.MemberBranch  `json:"branches"`
	Failures []services.MemberFailure `json:"failures"`
}

// MembershipResponse is returned by add/remove member
type MembershipResponse struct {
	Chat ChatDTO               `json:"chat"`
	Sync *services.SyncFailure `json:"sync_failure,omitempty"`
}

// MessageListResponse represents a paginated list of messages
type MessageListResponse struct {
	Messages   []MessageDTO             `json:"messages"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToMessageDTO converts a message model to DTO
func ToMessageDTO(msg models.Message) MessageDTO {
	return MessageDTO{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Content:   msg.Content,
		Sender:    ToUserDTO(msg.Sender),
		CreatedAt: msg.CreatedAt,
	}
}

// ToChatDTO converts a chat with its loaded relations to DTO
func ToChatDTO(chat models.Chat) ChatDTO {
	users := make([]UserDTO, len(chat.Members))
	for i, m := range chat.Members {
		users[i] = ToUserDTO(m.User)
	}

	out := ChatDTO{
		ID:             chat.ID,
		ChatName:       chat.ChatName,
		IsGroupChat:    chat.IsGroupChat,
		RepositoryName: chat.RepositoryName,
		Users:          users,
		CreatedAt:      chat.CreatedAt,
		UpdatedAt:      chat.UpdatedAt,
	}
	if chat.GroupAdmin != nil {
		admin := ToUserDTO(*chat.GroupAdmin)
		out.GroupAdmin = &admin
	}
	if chat.LatestMessage != nil {
		latest := ToMessageDTO(*chat.LatestMessage)
		out.LatestMessage = &latest
	}
	return out
}

// ToChatDTOs converts a slice of chats
func ToChatDTOs(chats []models.Chat) []ChatDTO {
	out := make([]ChatDTO, len(chats))
	for i, c := range chats {
		out[i] = ToChatDTO(c)
	}
	return out
}

// ToGroupChatResponse converts a provisioning result
func ToGroupChatResponse(result services.ProvisionResult) GroupChatResponse {
	resp := GroupChatResponse{
		Chat:     ToChatDTO(*result.Chat),
		Owner:    result.Owner,
		Branches: result.Branches,
		Failures: result.Failures,
	}
	if resp.Branches == nil {
		resp.Branches = []services.MemberBranch{}
	}
	if resp.Failures == nil {
		resp.Failures = []services.MemberFailure{}
	}
	return resp
}
