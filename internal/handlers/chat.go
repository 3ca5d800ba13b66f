package handlers

import (
	"net/http"

	"github.com/devsync/teamchat-api/internal/dto"
	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService *services.ChatService
	provisioner *services.Provisioner
}

func NewChatHandler(chatService *services.ChatService, provisioner *services.Provisioner) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		provisioner: provisioner,
	}
}

// AccessChat opens (or creates) the direct chat with another user
func (h *ChatHandler) AccessChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		UserID uint64 `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "userId param not sent with request")
		return
	}

	chat, err := h.chatService.AccessChat(userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToChatDTO(*chat))
}

// FetchChats lists the caller's chats, most recently active first
func (h *ChatHandler) FetchChats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chats, err := h.chatService.FetchChats(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToChatDTOs(chats))
}

// CreateGroupChat provisions a repository and creates the group chat
func (h *ChatHandler) CreateGroupChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Name           string   `json:"name"`
		Users          []uint64 `json:"users"`
		RepositoryName string   `json:"repositoryName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.provisioner.CreateGroupChat(c.Request.Context(), services.CreateGroupInput{
		RequesterID:    userID,
		MemberIDs:      req.Users,
		GroupName:      req.Name,
		RepositoryName: req.RepositoryName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGroupChatResponse(*result))
}

// RenameChat sets a new display name on a chat the caller belongs to
func (h *ChatHandler) RenameChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		ChatID   uint64 `json:"chatId" binding:"required"`
		ChatName string `json:"chatName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if _, err := h.chatService.RequireMember(req.ChatID, userID); err != nil {
		respondError(c, err)
		return
	}
	chat, err := h.chatService.RenameChat(req.ChatID, req.ChatName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToChatDTO(*chat))
}

type membershipRequest struct {
	ChatID uint64 `json:"chatId" binding:"required"`
	UserID uint64 `json:"userId" binding:"required"`
}

// AddMember adds a user to a group and invites them to its repository
func (h *ChatHandler) AddMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req membershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "chatId and userId are required")
		return
	}

	result, err := h.chatService.AddMember(c.Request.Context(), req.ChatID, userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MembershipResponse{Chat: dto.ToChatDTO(*result.Chat), Sync: result.Sync})
}

// RemoveMember removes a user from a group and revokes repository access
func (h *ChatHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req membershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "chatId and userId are required")
		return
	}

	result, err := h.chatService.RemoveMember(c.Request.Context(), req.ChatID, userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MembershipResponse{Chat: dto.ToChatDTO(*result.Chat), Sync: result.Sync})
}
