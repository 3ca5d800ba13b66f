package handlers

import (
	"net/http"
	"time"

	"github.com/devsync/teamchat-api/internal/constants"
	"github.com/devsync/teamchat-api/internal/dto"
	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/devsync/teamchat-api/internal/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// UserHandler coordinates registration, login and profile handlers.
type UserHandler struct {
	authService *services.AuthService
	jwtSecret   string
	tokenTTL    time.Duration
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, jwtSecret string, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{
		authService: authService,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

// Register creates a user and signs them in.
func (h *UserHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Name        string `json:"name" binding:"required"`
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
		Pic         string `json:"pic"`
		GithubToken string `json:"githubToken" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Please enter all the fields")
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Pic:         req.Pic,
		GithubToken: req.GithubToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.signIn(c, http.StatusCreated, user)
}

// Login authenticates a user and initializes the session.
func (h *UserHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.signIn(c, http.StatusOK, user)
}

// signIn stores the session and issues a bearer token.
func (h *UserHandler) signIn(c *gin.Context, status int, user *models.User) {
	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	token, err := utils.GenerateAccessToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("generate access token")
		apierrors.InternalError(c, "Failed to issue token")
		return
	}

	c.JSON(status, dto.AuthResponse{User: dto.ToUserDTO(*user), Token: token})
}

// Logout removes the authentication session.
func (h *UserHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Search lists other users matching ?search= by name or email.
func (h *UserHandler) Search(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	users, err := h.authService.SearchUsers(userID, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// UpdateGithubToken replaces the caller's stored provider token.
func (h *UserHandler) UpdateGithubToken(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		GithubToken string `json:"githubToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "githubToken is required")
		return
	}

	changed, err := h.authService.UpdateGithubToken(userID, req.GithubToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": changed})
}
