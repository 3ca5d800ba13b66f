package github

import (
	"context"
	"errors"
	"net/http"
	"time"

	gh "github.com/google/go-github/v66/github"
)

type Branch struct {
	Name      string `json:"name"`
	CommitSHA string `json:"commit_sha"`
	Protected bool   `json:"protected"`
}

type Commit struct {
	SHA         string    `json:"sha"`
	Message     string    `json:"message"`
	AuthorName  string    `json:"author_name"`
	AuthorLogin string    `json:"author_login,omitempty"`
	Date        time.Time `json:"date"`
	HTMLURL     string    `json:"html_url"`
}

// Entry is one item of a directory listing.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	SHA         string `json:"sha"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url,omitempty"`
}

// File carries content exactly as the provider stores it (base64).
type File struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// ErrNotAFile is returned by GetFile when path names a directory.
var ErrNotAFile = errors.New("path is a directory")

// ErrNotADirectory is returned by ListDirectory when path names a file.
var ErrNotADirectory = errors.New("path is a file")

// ListBranches returns every branch, following pagination.
func (g *Gateway) ListBranches(ctx context.Context, token, owner, repo string) ([]Branch, error) {
	client := g.client(token)
	opts := &gh.BranchListOptions{ListOptions: gh.ListOptions{PerPage: 100}}

	branches := []Branch{}
	for {
		page, resp, err := client.Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrap("list branches", err)
		}
		for _, b := range page {
			branches = append(branches, Branch{
				Name:      b.GetName(),
				CommitSHA: b.GetCommit().GetSHA(),
				Protected: b.GetProtected(),
			})
		}
		if resp.NextPage == 0 {
			return branches, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListCommits returns the most recent commits reachable from branch.
func (g *Gateway) ListCommits(ctx context.Context, token, owner, repo, branch string) ([]Commit, error) {
	page, _, err := g.client(token).Repositories.ListCommits(ctx, owner, repo, &gh.CommitsListOptions{
		SHA:         branch,
		ListOptions: gh.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, wrap("list commits", err)
	}

	commits := make([]Commit, 0, len(page))
	for _, c := range page {
		commits = append(commits, Commit{
			SHA:         c.GetSHA(),
			Message:     c.GetCommit().GetMessage(),
			AuthorName:  c.GetCommit().GetAuthor().GetName(),
			AuthorLogin: c.GetAuthor().GetLogin(),
			Date:        c.GetCommit().GetAuthor().GetDate().Time,
			HTMLURL:     c.GetHTMLURL(),
		})
	}
	return commits, nil
}

// ListDirectory lists the immediate children of path at ref.
func (g *Gateway) ListDirectory(ctx context.Context, token, owner, repo, path, ref string) ([]Entry, error) {
	file, dir, _, err := g.client(token).Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, wrap("list directory", err)
	}
	if file != nil {
		return nil, &Error{Op: "list directory", Kind: KindOther, Status: http.StatusOK, Message: ErrNotADirectory.Error()}
	}

	entries := make([]Entry, 0, len(dir))
	for _, item := range dir {
		entries = append(entries, Entry{
			Name:        item.GetName(),
			Path:        item.GetPath(),
			Type:        item.GetType(),
			SHA:         item.GetSHA(),
			Size:        item.GetSize(),
			DownloadURL: item.GetDownloadURL(),
		})
	}
	return entries, nil
}

// GetFile returns the file at path and ref.
func (g *Gateway) GetFile(ctx context.Context, token, owner, repo, path, ref string) (*File, error) {
	file, _, _, err := g.client(token).Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, wrap("get file", err)
	}
	if file == nil {
		return nil, &Error{Op: "get file", Kind: KindNotFound, Status: http.StatusOK, Message: ErrNotAFile.Error()}
	}

	out := &File{
		Name:     file.GetName(),
		Path:     file.GetPath(),
		SHA:      file.GetSHA(),
		Size:     file.GetSize(),
		Encoding: file.GetEncoding(),
	}
	if file.Content != nil {
		out.Content = *file.Content
	}
	return out, nil
}

// UploadFile writes content to path on branch, creating the file or
// replacing it when it already exists. Returns the commit SHA.
func (g *Gateway) UploadFile(ctx context.Context, token, owner, repo, path string, content []byte, message, branch string) (string, error) {
	client := g.client(token)
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: content,
		Branch:  gh.String(branch),
	}

	existing, _, _, err := client.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		if werr := wrap("upload file", err); !IsKind(werr, KindNotFound) {
			return "", werr
		}
	} else if existing != nil {
		opts.SHA = gh.String(existing.GetSHA())
		resp, _, err := client.Repositories.UpdateFile(ctx, owner, repo, path, opts)
		if err != nil {
			return "", wrap("upload file", err)
		}
		return resp.Commit.GetSHA(), nil
	}

	resp, _, err := client.Repositories.CreateFile(ctx, owner, repo, path, opts)
	if err != nil {
		return "", wrap("upload file", err)
	}
	return resp.Commit.GetSHA(), nil
}
