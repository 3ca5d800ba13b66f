package services

import (
	"context"

	"github.com/devsync/teamchat-api/internal/github"
)

// Gateway is the subset of the provider API the services drive.
// *github.Gateway satisfies it.
type Gateway interface {
	ResolveUsername(ctx context.Context, token string) (string, error)
	CreateRepository(ctx context.Context, token, name string) (string, error)
	AddCollaborator(ctx context.Context, token, owner, repo, username string) error
	RemoveCollaborator(ctx context.Context, token, owner, repo, username string) error
	BranchHeadSHA(ctx context.Context, token, owner, repo, branch string) (string, error)
	CreateFile(ctx context.Context, token, owner, repo, path string, content []byte, message, branch string) (string, error)
	CreateBranch(ctx context.Context, token, owner, repo, name, fromSHA string) error

	ListBranches(ctx context.Context, token, owner, repo string) ([]github.Branch, error)
	ListCommits(ctx context.Context, token, owner, repo, branch string) ([]github.Commit, error)
	Tree(ctx context.Context, token, owner, repo, path, ref string, opts github.TreeOptions) ([]github.TreeNode, error)
	GetFile(ctx context.Context, token, owner, repo, path, ref string) (*github.File, error)
	UploadFile(ctx context.Context, token, owner, repo, path string, content []byte, message, branch string) (string, error)
}

// UsernameResolver is satisfied by the Gateway itself and by cache.CachingResolver.
type UsernameResolver interface {
	ResolveUsername(ctx context.Context, token string) (string, error)
}

type resolvingGateway struct {
	Gateway
	resolver UsernameResolver
}

func (g resolvingGateway) ResolveUsername(ctx context.Context, token string) (string, error) {
	return g.resolver.ResolveUsername(ctx, token)
}

// WithUsernameResolver returns gw with username lookups served by r.
func WithUsernameResolver(gw Gateway, r UsernameResolver) Gateway {
	return resolvingGateway{Gateway: gw, resolver: r}
}
