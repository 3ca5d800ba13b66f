package handlers

import (
	"net/http"

	"github.com/devsync/teamchat-api/internal/constants"
	"github.com/devsync/teamchat-api/internal/metrics"
	"github.com/devsync/teamchat-api/internal/middleware"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/devsync/teamchat-api/internal/ws"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies is everything the HTTP surface needs.
type Dependencies struct {
	Env          string
	JWTSecret    string
	CORSOrigin   string
	SessionStore sessions.Store
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter

	Users        *UserHandler
	Chats        *ChatHandler
	Messages     *MessageHandler
	Repos        *RepoHandler
	Phases       *PhaseHandler
	Tasks        *TaskHandler
	Meetings     *MeetingHandler
	ChatService  *services.ChatService
	PhaseService *services.PhaseService
	Hub          *ws.Hub
}

// SetupRouter builds the engine with middleware and every route.
func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(metrics.GinMiddleware())
	r.Use(middleware.CORS(d.Env, d.CORSOrigin))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware())
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, d.SessionStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Team chat API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	canJoin := func(chatID, userID uint64) bool {
		_, err := d.ChatService.RequireMember(chatID, userID)
		return err == nil
	}
	r.GET("/ws", ws.Serve(d.Hub, d.JWTSecret, canJoin))

	auth := middleware.RequireAuth(d.JWTSecret)
	chatAccess := middleware.RequireChatAccess(d.ChatService)
	phaseAccess := middleware.RequirePhaseAccess(d.PhaseService, d.ChatService)

	api := r.Group("/api")
	{
		user := api.Group("/user")
		{
			user.POST("", d.Users.Register)
			user.POST("/login", d.Users.Login)
			user.POST("/logout", d.Users.Logout)
			user.GET("", auth, d.Users.Search)
			user.GET("/me", auth, d.Users.Me)
			user.PUT("/github-token", auth, d.Users.UpdateGithubToken)
		}

		chat := api.Group("/chat")
		chat.Use(auth)
		{
			chat.POST("", d.Chats.AccessChat)
			chat.GET("", d.Chats.FetchChats)
			chat.POST("/group", d.Chats.CreateGroupChat)
			chat.PUT("/rename", d.Chats.RenameChat)
			chat.PUT("/groupadd", d.Chats.AddMember)
			chat.PUT("/groupremove", d.Chats.RemoveMember)
		}

		message := api.Group("/message")
		message.Use(auth)
		{
			message.POST("", d.Messages.Send)
			message.GET("/:chatId", d.Messages.List)
		}

		repo := api.Group("/repo/:chatId")
		repo.Use(auth, chatAccess)
		{
			repo.GET("/repodetails", d.Repos.Details)
			repo.GET("/branches", d.Repos.Branches)
			repo.GET("/tree", d.Repos.Tree)
			repo.GET("/folders", d.Repos.Folders)
			repo.GET("/file", d.Repos.File)
			repo.GET("/commits", d.Repos.Commits)
			repo.POST("/upload", d.Repos.Upload)
		}

		phases := api.Group("/phase/:chatId")
		phases.Use(auth, chatAccess)
		{
			phases.POST("/phases", d.Phases.AddPhase)
			phases.GET("/phases", d.Phases.ListPhases)
			phases.DELETE("/phases/:phaseId", d.Phases.DeletePhase)
		}

		tasks := api.Group("/tasks/:phaseId")
		tasks.Use(auth, phaseAccess)
		{
			tasks.POST("/tasks", d.Tasks.AddTask)
			tasks.GET("/tasks", d.Tasks.ListTasks)
			tasks.DELETE("/tasks/:taskId", d.Tasks.DeleteTask)
			tasks.PATCH("/tasks/:taskId/status", d.Tasks.UpdateStatus)
			tasks.POST("/suggest", d.Tasks.SuggestTasks)
		}

		api.GET("/zoom/join-or-create-meeting/:chatId", auth, chatAccess, d.Meetings.JoinOrCreate)
	}

	return r
}
