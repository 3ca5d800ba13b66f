package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devsync/teamchat-api/internal/credential"
	"github.com/devsync/teamchat-api/internal/database"
	"github.com/devsync/teamchat-api/internal/github"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
	"github.com/devsync/teamchat-api/internal/zoom"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecretKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type fakeRepo struct {
	collaborators map[string]bool
	branches      map[string]string
	files         map[string][]byte
}

// fakeGateway is an in-memory provider. fail injects an error for a
// call keyed "<op>:<subject>", e.g. "add:bob" or "resolve:tok-bob".
type fakeGateway struct {
	mu     sync.Mutex
	logins map[string]string
	repos  map[string]*fakeRepo
	fail   map[string]error
	calls  []string
	seq    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		logins: map[string]string{},
		repos:  map[string]*fakeRepo{},
		fail:   map[string]error{},
	}
}

func providerErr(op string, kind github.Kind, status int) error {
	return &github.Error{Op: op, Kind: kind, Status: status, Message: "injected"}
}

func (g *fakeGateway) record(op, subject string) error {
	g.calls = append(g.calls, op+":"+subject)
	return g.fail[op+":"+subject]
}

func (g *fakeGateway) repo(owner, name string) (*fakeRepo, error) {
	r, ok := g.repos[owner+"/"+name]
	if !ok {
		return nil, providerErr("repo", github.KindNotFound, http.StatusNotFound)
	}
	return r, nil
}

func (g *fakeGateway) nextSHA() string {
	g.seq++
	return fmt.Sprintf("sha-%d", g.seq)
}

func (g *fakeGateway) collaborators(owner, name string) map[string]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := map[string]bool{}
	if r, ok := g.repos[owner+"/"+name]; ok {
		for k := range r.collaborators {
			out[k] = true
		}
	}
	return out
}

func (g *fakeGateway) branchNames(owner, name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	if r, ok := g.repos[owner+"/"+name]; ok {
		for b := range r.branches {
			out = append(out, b)
		}
	}
	return out
}

func (g *fakeGateway) called(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if strings.HasPrefix(c, op+":") {
			n++
		}
	}
	return n
}

func (g *fakeGateway) ResolveUsername(_ context.Context, token string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("resolve", token); err != nil {
		return "", err
	}
	login, ok := g.logins[token]
	if !ok {
		return "", providerErr("resolve username", github.KindUnauthorized, http.StatusUnauthorized)
	}
	return login, nil
}

func (g *fakeGateway) CreateRepository(_ context.Context, token, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("create", name); err != nil {
		return "", err
	}
	owner := g.logins[token]
	if _, exists := g.repos[owner+"/"+name]; exists {
		return "", providerErr("create repository", github.KindOther, http.StatusUnprocessableEntity)
	}
	g.repos[owner+"/"+name] = &fakeRepo{collaborators: map[string]bool{}, branches: map[string]string{}, files: map[string][]byte{}}
	return name, nil
}

func (g *fakeGateway) AddCollaborator(_ context.Context, _, owner, repo, username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("add", username); err != nil {
		return err
	}
	r, err := g.repo(owner, repo)
	if err != nil {
		return err
	}
	r.collaborators[username] = true
	return nil
}

func (g *fakeGateway) RemoveCollaborator(_ context.Context, _, owner, repo, username string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("remove", username); err != nil {
		return err
	}
	r, err := g.repo(owner, repo)
	if err != nil {
		return err
	}
	delete(r.collaborators, username)
	return nil
}

func (g *fakeGateway) BranchHeadSHA(_ context.Context, _, owner, repo, branch string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("head", branch); err != nil {
		return "", err
	}
	r, err := g.repo(owner, repo)
	if err != nil {
		return "", err
	}
	sha, ok := r.branches[branch]
	if !ok {
		return "", providerErr("get ref", github.KindNotFound, http.StatusNotFound)
	}
	return sha, nil
}

func (g *fakeGateway) CreateFile(_ context.Context, _, owner, repo, path string, content []byte, _, branch string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("seed", path); err != nil {
		return "", err
	}
	r, err := g.repo(owner, repo)
	if err != nil {
		return "", err
	}
	r.files[path] = content
	sha := g.nextSHA()
	r.branches[branch] = sha
	return sha, nil
}

func (g *fakeGateway) CreateBranch(_ context.Context, _, owner, repo, name, fromSHA string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("branch", name); err != nil {
		return err
	}
	r, err := g.repo(owner, repo)
	if err != nil {
		return err
	}
	if _, exists := r.branches[name]; exists {
		return providerErr("create ref", github.KindOther, http.StatusUnprocessableEntity)
	}
	r.branches[name] = fromSHA
	return nil
}

func (g *fakeGateway) ListBranches(_ context.Context, _, owner, repo string) ([]github.Branch, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, err := g.repo(owner, repo)
	if err != nil {
		return nil, err
	}
	out := []github.Branch{}
	for name, sha := range r.branches {
		out = append(out, github.Branch{Name: name, CommitSHA: sha})
	}
	return out, nil
}

func (g *fakeGateway) ListCommits(_ context.Context, _, owner, repo, branch string) ([]github.Commit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, err := g.repo(owner, repo)
	if err != nil {
		return nil, err
	}
	sha, ok := r.branches[branch]
	if !ok {
		return nil, providerErr("list commits", github.KindNotFound, http.StatusNotFound)
	}
	return []github.Commit{{SHA: sha, Message: "Initial commit", Date: time.Unix(0, 0)}}, nil
}

func (g *fakeGateway) Tree(_ context.Context, token, owner, repo, path, ref string, opts github.TreeOptions) ([]github.TreeNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("tree", token+"@"+path); err != nil {
		return nil, err
	}
	r, err := g.repo(owner, repo)
	if err != nil {
		return nil, err
	}
	out := []github.TreeNode{}
	for p := range r.files {
		if opts.DirectoriesOnly {
			continue
		}
		out = append(out, github.TreeNode{Entry: github.Entry{Name: p, Path: p, Type: "file"}})
	}
	return out, nil
}

func (g *fakeGateway) GetFile(_ context.Context, _, owner, repo, path, _ string) (*github.File, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, err := g.repo(owner, repo)
	if err != nil {
		return nil, err
	}
	content, ok := r.files[path]
	if !ok {
		return nil, providerErr("get contents", github.KindNotFound, http.StatusNotFound)
	}
	return &github.File{Path: path, Content: string(content), Encoding: "base64"}, nil
}

func (g *fakeGateway) UploadFile(_ context.Context, token, owner, repo, path string, content []byte, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("upload", token+"@"+path); err != nil {
		return "", err
	}
	r, err := g.repo(owner, repo)
	if err != nil {
		return "", err
	}
	r.files[path] = content
	return g.nextSHA(), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events map[uint64][]string
}

func (p *fakePublisher) PublishToUser(userID uint64, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[uint64][]string{}
	}
	p.events[userID] = append(p.events[userID], event)
}

type fakeMeetings struct {
	calls int
	err   error
}

func (f *fakeMeetings) CreateMeeting(_ context.Context, topic string, duration time.Duration) (*zoom.Meeting, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &zoom.Meeting{ID: fmt.Sprintf("m-%d", f.calls), JoinURL: "https://zoom.test/j/" + topic, Password: duration.String()}, nil
}

// testEnv wires real gorm repositories on sqlite to the fake provider.
type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	chats    repository.ChatRepository
	messages repository.MessageRepository
	phases   repository.PhaseRepository
	tasks    repository.TaskRepository
	gw       *fakeGateway
	creds    *Credentials
}

func newTestEnv(t *testing.T) *testEnv {
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

	return &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		chats:    repository.NewChatRepository(db),
		messages: repository.NewMessageRepository(db),
		phases:   repository.NewPhaseRepository(db),
		tasks:    repository.NewTaskRepository(db),
		gw:       newFakeGateway(),
		creds:    NewCredentials(cipher),
	}
}

// addUser stores a user; a user created with a login gets the token
// "tok-<login>" which the provider resolves back to that login.
func (e *testEnv) addUser(t *testing.T, name, login string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com", PasswordHash: "hash"}
	if login != "" {
		sealed, err := e.creds.Seal("tok-" + login)
		require.NoError(t, err)
		user.GithubToken = sealed
		e.gw.logins["tok-"+login] = login
	}
	require.NoError(t, e.users.Create(user))
	return user
}

func (e *testEnv) provisioner() *Provisioner {
	return NewProvisioner(e.users, e.chats, e.gw, e.creds, ProvisionerConfig{DefaultBranch: "main", FanOutLimit: 4})
}

func (e *testEnv) chatService() *ChatService {
	return NewChatService(e.users, e.chats, e.gw, e.creds)
}

// cancellingGateway cancels the caller's context on the first collaborator
// change, then fails every write made with a cancelled context the way a
// real HTTP transport does.
type cancellingGateway struct {
	*fakeGateway
	cancel context.CancelFunc
}

func (g *cancellingGateway) AddCollaborator(ctx context.Context, token, owner, repo, username string) error {
	g.cancel()
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.fakeGateway.AddCollaborator(ctx, token, owner, repo, username)
}

func (g *cancellingGateway) RemoveCollaborator(ctx context.Context, token, owner, repo, username string) error {
	g.cancel()
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.fakeGateway.RemoveCollaborator(ctx, token, owner, repo, username)
}

func (g *cancellingGateway) CreateFile(ctx context.Context, token, owner, repo, path string, content []byte, message, branch string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.fakeGateway.CreateFile(ctx, token, owner, repo, path, content, message, branch)
}

func (g *cancellingGateway) BranchHeadSHA(ctx context.Context, token, owner, repo, branch string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.fakeGateway.BranchHeadSHA(ctx, token, owner, repo, branch)
}

func (g *cancellingGateway) CreateBranch(ctx context.Context, token, owner, repo, name, fromSHA string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.fakeGateway.CreateBranch(ctx, token, owner, repo, name, fromSHA)
}
