package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/devsync/teamchat-api/internal/github"
	"github.com/devsync/teamchat-api/internal/models"
	"github.com/devsync/teamchat-api/internal/repository"
)

// RepositoryDetails identifies the repository bound to a chat.
type RepositoryDetails struct {
	Owner          string `json:"owner"`
	RepositoryName string `json:"repositoryName"`
}

// UploadInput describes a file committed through a chat's repository.
type UploadInput struct {
	Branch   string
	Dir      string
	FileName string
	Content  []byte
	Message  string
}

// UploadResult is the outcome of UploadFile.
type UploadResult struct {
	Path      string `json:"path"`
	CommitSHA string `json:"commit_sha"`
}

// RepoService exposes read and upload views of a chat's repository. The
// owner is derived from the admin's token; every call is made with the
// requesting member's own token. Callers pass a chat the requester is
// already known to belong to.
type RepoService struct {
	users   repository.UserRepository
	gateway Gateway
	creds   *Credentials
}

func NewRepoService(users repository.UserRepository, gateway Gateway, creds *Credentials) *RepoService {
	return &RepoService{users: users, gateway: gateway, creds: creds}
}

// target is what every repository call needs.
type target struct {
	token string
	owner string
	repo  string
}

func (s *RepoService) target(ctx context.Context, chat *models.Chat, requesterID uint64) (*target, error) {
	owner, err := s.ownerOf(ctx, chat)
	if err != nil {
		return nil, err
	}

	requester, err := s.users.FindByID(requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	token, err := s.creds.TokenFor(requester)
	if err != nil {
		return nil, err
	}
	return &target{token: token, owner: owner, repo: chat.RepositoryName}, nil
}

func (s *RepoService) ownerOf(ctx context.Context, chat *models.Chat) (string, error) {
	if chat.RepositoryName == "" || chat.GroupAdmin == nil {
		return "", ErrNoRepository
	}
	adminTok, err := s.creds.TokenFor(chat.GroupAdmin)
	if err != nil {
		return "", err
	}
	return s.gateway.ResolveUsername(ctx, adminTok)
}

// Details returns the owner and name of the chat's repository.
func (s *RepoService) Details(ctx context.Context, chat *models.Chat) (*RepositoryDetails, error) {
	owner, err := s.ownerOf(ctx, chat)
	if err != nil {
		return nil, err
	}
	return &RepositoryDetails{Owner: owner, RepositoryName: chat.RepositoryName}, nil
}

func (s *RepoService) Branches(ctx context.Context, chat *models.Chat, requesterID uint64) ([]github.Branch, error) {
	t, err := s.target(ctx, chat, requesterID)
	if err != nil {
		return nil, err
	}
	return s.gateway.ListBranches(ctx, t.token, t.owner, t.repo)
}

func (s *RepoService) Commits(ctx context.Context, chat *models.Chat, requesterID uint64, branch string) ([]github.Commit, error) {
	if branch == "" {
		return nil, validationError("branch is required")
	}
	t, err := s.target(ctx, chat, requesterID)
	if err != nil {
		return nil, err
	}
	return s.gateway.ListCommits(ctx, t.token, t.owner, t.repo, branch)
}

// Tree lists dir recursively at branch. node_modules is skipped.
func (s *RepoService) Tree(ctx context.Context, chat *models.Chat, requesterID uint64, branch, dir string) ([]github.TreeNode, error) {
	return s.tree(ctx, chat, requesterID, branch, dir, github.TreeOptions{})
}

// Folders is Tree without files.
func (s *RepoService) Folders(ctx context.Context, chat *models.Chat, requesterID uint64, branch, dir string) ([]github.TreeNode, error) {
	return s.tree(ctx, chat, requesterID, branch, dir, github.TreeOptions{DirectoriesOnly: true})
}

func (s *RepoService) tree(ctx context.Context, chat *models.Chat, requesterID uint64, branch, dir string, opts github.TreeOptions) ([]github.TreeNode, error) {
	if branch == "" {
		return nil, validationError("branch is required")
	}
	t, err := s.target(ctx, chat, requesterID)
	if err != nil {
		return nil, err
	}
	return s.gateway.Tree(ctx, t.token, t.owner, t.repo, cleanDir(dir), branch, opts)
}

// File returns a file's content base64 encoded, as the provider stores it.
func (s *RepoService) File(ctx context.Context, chat *models.Chat, requesterID uint64, branch, filePath string) (*github.File, error) {
	filePath = cleanDir(filePath)
	if branch == "" || filePath == "" {
		return nil, validationError("branch and path are required")
	}
	t, err := s.target(ctx, chat, requesterID)
	if err != nil {
		return nil, err
	}
	return s.gateway.GetFile(ctx, t.token, t.owner, t.repo, filePath, branch)
}

// Upload commits a file to dir/filename on branch, replacing any existing
// file at that path.
func (s *RepoService) Upload(ctx context.Context, chat *models.Chat, requesterID uint64, input UploadInput) (*UploadResult, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, validationError("commit message is required")
	}
	if input.Branch == "" {
		return nil, validationError("branch is required")
	}
	name := path.Base(strings.TrimSpace(input.FileName))
	if name == "" || name == "." || name == "/" {
		return nil, validationError("file is required")
	}
	filePath := name
	if dir := cleanDir(input.Dir); dir != "" {
		filePath = dir + "/" + name
	}

	t, err := s.target(ctx, chat, requesterID)
	if err != nil {
		return nil, err
	}
	sha, err := s.gateway.UploadFile(ctx, t.token, t.owner, t.repo, filePath, input.Content, input.Message, input.Branch)
	if err != nil {
		return nil, err
	}
	return &UploadResult{Path: filePath, CommitSHA: sha}, nil
}

// cleanDir normalises a repository path; the root is "".
func cleanDir(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}
