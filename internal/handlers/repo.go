package handlers

import (
	"io"
	"net/http"

	"github.com/devsync/teamchat-api/internal/constants"
	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/middleware"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RepoHandler serves the repository views of a chat. Every route runs
// behind RequireChatAccess.
type RepoHandler struct {
	repoService *services.RepoService
}

func NewRepoHandler(repoService *services.RepoService) *RepoHandler {
	return &RepoHandler{repoService: repoService}
}

func (h *RepoHandler) chat(c *gin.Context) (*models.Chat, uint64, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, 0, false
	}
	chat, ok := middleware.GetChat(c)
	if !ok {
		apierrors.InternalError(c, "Chat not found in context")
		return nil, 0, false
	}
	return chat, userID, true
}

// Details returns the repository owner and name
func (h *RepoHandler) Details(c *gin.Context) {
	chat, _, ok := h.chat(c)
	if !ok {
		return
	}
	details, err := h.repoService.Details(c.Request.Context(), chat)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *RepoHandler) Branches(c *gin.Context) {
	chat, userID, ok := h.chat(c)
	if !ok {
		return
	}
	branches, err := h.repoService.Branches(c.Request.Context(), chat, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

// Tree lists ?path= recursively on ?branch=
func (h *RepoHandler) Tree(c *gin.Context) {
	chat, userID, ok := h.chat(c)
	if !ok {
		return
	}
	tree, err := h.repoService.Tree(c.Request.Context(), chat, userID, c.Query("branch"), c.Query("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// Folders is Tree restricted to directories
func (h *RepoHandler) Folders(c *gin.Context) {
	chat, userID, ok := h.chat(c)
	if !ok {
		return
	}
	tree, err := h.repoService.Folders(c.Request.Context(), chat, userID, c.Query("branch"), c.Query("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// File returns one file, content base64 encoded
func (h *RepoHandler) File(c *gin.Context) {
	chat, userID, ok := h.chat(c)
	if !ok {
		return
	}
	file, err := h.repoService.File(c.Request.Context(), chat, userID, c.Query("branch"), c.Query("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *RepoHandler) Commits(c *gin.Context) {
	chat, userID, ok := h.chat(c)
	if !ok {
		return
	}
	commits, err := h.repoService.Commits(c.Request.Context(), chat, userID, c.Query("branch"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commits)
}

// Upload commits a multipart "file" to branch under path
func (h *RepoHandler) Upload(c *gin.Context) {
	chat, userID, ok := h.chat(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxUploadBytes+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "No file uploaded")
		return
	}
	if header.Size > constants.MaxUploadBytes {
		apierrors.BadRequest(c, "File is too large")
		return
	}
	f, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read upload")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		apierrors.BadRequest(c, "Failed to read upload")
		return
	}

	result, err := h.repoService.Upload(c.Request.Context(), chat, userID, services.UploadInput{
		Branch:   c.PostForm("branch"),
		Dir:      c.PostForm("path"),
		FileName: header.Filename,
		Content:  content,
		Message:  c.PostForm("commitMessage"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
