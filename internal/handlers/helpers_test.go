package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devsync/teamchat-api/internal/credential"
	"github.com/devsync/teamchat-api/internal/database"
	"github.com/devsync/teamchat-api/internal/github"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/devsync/teamchat-api/internal/utils"
	"github.com/devsync/teamchat-api/internal/ws"
	"github.com/devsync/teamchat-api/internal/zoom"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret = "handlers-secret"
	testSecretKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubGateway answers every provider call successfully unless failCreate
// is set. Tokens resolve through logins.
type stubGateway struct {
	mu         sync.Mutex
	logins     map[string]string
	failCreate error
	uploads    map[string][]byte
}

func (g *stubGateway) ResolveUsername(_ context.Context, token string) (string, error) {
	if login, ok := g.logins[token]; ok {
		return login, nil
	}
	return "", &github.Error{Op: "resolve username", Kind: github.KindUnauthorized, Status: http.StatusUnauthorized, Message: "Bad credentials"}
}

func (g *stubGateway) CreateRepository(_ context.Context, _, name string) (string, error) {
	if g.failCreate != nil {
		return "", g.failCreate
	}
	return name, nil
}

func (g *stubGateway) AddCollaborator(context.Context, string, string, string, string) error {
	return nil
}

func (g *stubGateway) RemoveCollaborator(context.Context, string, string, string, string) error {
	return nil
}

func (g *stubGateway) BranchHeadSHA(context.Context, string, string, string, string) (string, error) {
	return "head-sha", nil
}

func (g *stubGateway) CreateFile(context.Context, string, string, string, string, []byte, string, string) (string, error) {
	return "seed-sha", nil
}

func (g *stubGateway) CreateBranch(context.Context, string, string, string, string, string) error {
	return nil
}

func (g *stubGateway) ListBranches(context.Context, string, string, string) ([]github.Branch, error) {
	return []github.Branch{{Name: "main", CommitSHA: "head-sha"}}, nil
}

func (g *stubGateway) ListCommits(_ context.Context, _, _, _, branch string) ([]github.Commit, error) {
	return []github.Commit{{SHA: "head-sha", Message: "Initial commit on " + branch}}, nil
}

func (g *stubGateway) Tree(context.Context, string, string, string, string, string, github.TreeOptions) ([]github.TreeNode, error) {
	return []github.TreeNode{{Entry: github.Entry{Name: "README.md", Path: "README.md", Type: "file"}}}, nil
}

func (g *stubGateway) GetFile(_ context.Context, _, _, _, path, _ string) (*github.File, error) {
	return &github.File{Name: path, Path: path, Encoding: "base64"}, nil
}

func (g *stubGateway) UploadFile(_ context.Context, _, owner, repo, path string, content []byte, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploads[owner+"/"+repo+"/"+path] = content
	return "upload-sha", nil
}

type stubMeetings struct {
	calls int
}

func (m *stubMeetings) CreateMeeting(context.Context, string, time.Duration) (*zoom.Meeting, error) {
	m.calls++
	return &zoom.Meeting{ID: "987654321", JoinURL: "https://zoom.us/j/987654321", Password: "pw"}, nil
}

type apiEnv struct {
	router *gin.Engine
	users  repository.UserRepository
	creds  *services.Credentials
	gw     *stubGateway
}

type envOptions struct {
	ai       *services.AIService
	meetings services.MeetingCreator
}

func newAPIEnv(t *testing.T) *apiEnv {
	return newAPIEnvWith(t, envOptions{})
}

func newAPIEnvWith(t *testing.T, opts envOptions) *apiEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.Models()...))

	cipher, err := credential.NewCipher(testSecretKey)
	require.NoError(t, err)
	creds := services.NewCredentials(cipher)
	gw := &stubGateway{logins: map[string]string{}, uploads: map[string][]byte{}}

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	phaseRepo := repository.NewPhaseRepository(db)

	hub := ws.NewHub()
	chatService := services.NewChatService(userRepo, chatRepo, gw, creds)
	phaseService := services.NewPhaseService(phaseRepo)
	provisioner := services.NewProvisioner(userRepo, chatRepo, gw, creds, services.ProvisionerConfig{DefaultBranch: "main", FanOutLimit: 4})
	messageService := services.NewMessageService(repository.NewMessageRepository(db), chatRepo, chatService, hub)
	taskService := services.NewTaskService(repository.NewTaskRepository(db), chatRepo, opts.ai)

	router := SetupRouter(Dependencies{
		Env:          "test",
		JWTSecret:    testJWTSecret,
		CORSOrigin:   "http://localhost:3000",
		SessionStore: cookie.NewStore([]byte("secret")),
		Users:        NewUserHandler(services.NewAuthService(userRepo, creds), testJWTSecret, time.Hour),
		Chats:        NewChatHandler(chatService, provisioner),
		Messages:     NewMessageHandler(messageService),
		Repos:        NewRepoHandler(services.NewRepoService(userRepo, gw, creds)),
		Phases:       NewPhaseHandler(phaseService),
		Tasks:        NewTaskHandler(taskService),
		Meetings:     NewMeetingHandler(services.NewMeetingService(chatRepo, opts.meetings)),
		ChatService:  chatService,
		PhaseService: phaseService,
		Hub:          hub,
	})

	return &apiEnv{router: router, users: userRepo, creds: creds, gw: gw}
}

// addUser stores a user directly. A non-empty login gives the user the
// provider token "tok-<login>".
func (e *apiEnv) addUser(t *testing.T, name, login string) *models.User {
	t.Helper()
	user := &models.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "unused",
	}
	if login != "" {
		sealed, err := e.creds.Seal("tok-" + login)
		require.NoError(t, err)
		user.GithubToken = sealed
		e.gw.logins["tok-"+login] = login
	}
	require.NoError(t, e.users.Create(user))
	return user
}

// do sends a JSON request, authenticated as userID unless it is zero.
func (e *apiEnv) do(t *testing.T, method, path string, userID uint64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := utils.GenerateAccessToken(userID, testJWTSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
