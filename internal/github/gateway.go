// Package github wraps the source-control provider API. Each call performs
// exactly one remote operation with a caller-supplied token and never retries.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
)

// Gateway is stateless apart from its transport and base URL.
type Gateway struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New creates a Gateway against baseURL (e.g. https://api.github.com/).
// A nil httpClient gets a client with a 30s timeout.
func New(baseURL string, httpClient *http.Client) (*Gateway, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Gateway{baseURL: u, httpClient: httpClient}, nil
}

func (g *Gateway) client(token string) *gh.Client {
	c := gh.NewClient(g.httpClient).WithAuthToken(token)
	base := *g.baseURL
	c.BaseURL = &base
	return c
}

// ResolveUsername returns the login that owns token.
func (g *Gateway) ResolveUsername(ctx context.Context, token string) (string, error) {
	user, _, err := g.client(token).Users.Get(ctx, "")
	if err != nil {
		return "", wrap("resolve username", err)
	}
	return user.GetLogin(), nil
}

// CreateRepository creates a private repository for the token's user and
// returns its name. A name collision surfaces as KindOther with the
// provider's message.
func (g *Gateway) CreateRepository(ctx context.Context, token, name string) (string, error) {
	repo, _, err := g.client(token).Repositories.Create(ctx, "", &gh.Repository{
		Name:    gh.String(name),
		Private: gh.Bool(true),
	})
	if err != nil {
		return "", wrap("create repository", err)
	}
	return repo.GetName(), nil
}

// AddCollaborator invites username to owner/repo. Re-inviting an existing
// collaborator succeeds (the provider answers 204 instead of 201).
func (g *Gateway) AddCollaborator(ctx context.Context, token, owner, repo, username string) error {
	_, _, err := g.client(token).Repositories.AddCollaborator(ctx, owner, repo, username, nil)
	return wrap("add collaborator", err)
}

// RemoveCollaborator revokes username's access to owner/repo.
func (g *Gateway) RemoveCollaborator(ctx context.Context, token, owner, repo, username string) error {
	_, err := g.client(token).Repositories.RemoveCollaborator(ctx, owner, repo, username)
	return wrap("remove collaborator", err)
}

// BranchHeadSHA returns the commit SHA at the tip of branch. An empty
// repository has no refs, which surfaces as KindNotFound.
func (g *Gateway) BranchHeadSHA(ctx context.Context, token, owner, repo, branch string) (string, error) {
	ref, _, err := g.client(token).Git.GetRef(ctx, owner, repo, "heads/"+branch)
	if err != nil {
		return "", wrap("get branch ref", err)
	}
	return ref.GetObject().GetSHA(), nil
}

// CreateFile commits a new file and returns the commit SHA. content is raw;
// the client base64-encodes it on the wire.
func (g *Gateway) CreateFile(ctx context.Context, token, owner, repo, path string, content []byte, message, branch string) (string, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: content,
	}
	if branch != "" {
		opts.Branch = gh.String(branch)
	}
	resp, _, err := g.client(token).Repositories.CreateFile(ctx, owner, repo, path, opts)
	if err != nil {
		return "", wrap("create file", err)
	}
	return resp.Commit.GetSHA(), nil
}

// CreateBranch creates refs/heads/name at fromSHA. An existing name fails
// with KindOther.
func (g *Gateway) CreateBranch(ctx context.Context, token, owner, repo, name, fromSHA string) error {
	_, _, err := g.client(token).Git.CreateRef(ctx, owner, repo, &gh.Reference{
		Ref:    gh.String("refs/heads/" + name),
		Object: &gh.GitObject{SHA: gh.String(fromSHA)},
	})
	return wrap("create branch", err)
}
