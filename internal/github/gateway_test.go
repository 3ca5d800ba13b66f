package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodToken = "ghp_good"

// fakeProvider is a small in-memory stand-in for the provider's REST API.
type fakeProvider struct {
	mu            sync.Mutex
	repos         map[string]bool
	collaborators map[string]map[string]bool
	refs          map[string]string
	files         map[string]string
	commits       int
}

func newFakeProvider(t *testing.T) (*fakeProvider, *Gateway) {
	t.Helper()
	f := &fakeProvider{
		repos:         map[string]bool{},
		collaborators: map[string]map[string]bool{},
		refs:          map[string]string{},
		files:         map[string]string{},
	}
	srv := httptest.NewServer(f.routes())
	t.Cleanup(srv.Close)

	gw, err := New(srv.URL, srv.Client())
	require.NoError(t, err)
	return f, gw
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeProvider) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer " + goodToken:
			f.mu.Lock()
			defer f.mu.Unlock()
			next(w, r)
		case "Bearer ghp_throttled":
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"message": "slow down"})
		case "Bearer ghp_exhausted":
			w.Header().Set("X-RateLimit-Remaining", "0")
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "API rate limit exceeded"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		}
	}
}

func (f *fakeProvider) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"login": "octo-admin"})
	}))
	mux.HandleFunc("POST /user/repos", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name    string `json:"name"`
			Private bool   `json:"private"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if f.repos[body.Name] {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "Repository creation failed.",
				"errors":  []map[string]string{{"resource": "Repository", "field": "name", "code": "custom", "message": "name already exists on this account"}},
			})
			return
		}
		f.repos[body.Name] = true
		writeJSON(w, http.StatusCreated, map[string]any{"name": body.Name, "private": body.Private})
	}))
	mux.HandleFunc("PUT /repos/{owner}/{repo}/collaborators/{user}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		repo := r.PathValue("repo")
		if !f.repos[repo] {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		set := f.collaborators[repo]
		if set == nil {
			set = map[string]bool{}
			f.collaborators[repo] = set
		}
		if set[r.PathValue("user")] {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		set[r.PathValue("user")] = true
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1})
	}))
	mux.HandleFunc("DELETE /repos/{owner}/{repo}/collaborators/{user}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		repo := r.PathValue("repo")
		if !f.repos[repo] {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		delete(f.collaborators[repo], r.PathValue("user"))
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /repos/{owner}/{repo}/git/ref/{ref...}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("repo") + "/" + r.PathValue("ref")
		sha, ok := f.refs[key]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ref": "refs/" + r.PathValue("ref"), "object": map[string]string{"sha": sha, "type": "commit"}})
	}))
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/refs", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		key := r.PathValue("repo") + "/" + strings.TrimPrefix(body.Ref, "refs/")
		if _, exists := f.refs[key]; exists {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Reference already exists"})
			return
		}
		f.refs[key] = body.SHA
		writeJSON(w, http.StatusCreated, map[string]any{"ref": body.Ref, "object": map[string]string{"sha": body.SHA}})
	}))
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		prefix := r.PathValue("repo") + "/"
		path := r.PathValue("path")
		if content, ok := f.files[prefix+path]; ok {
			writeJSON(w, http.StatusOK, map[string]any{"type": "file", "name": path[strings.LastIndex(path, "/")+1:], "path": path, "sha": "blob-" + path, "encoding": "base64", "content": content})
			return
		}
		var items []map[string]any
		seen := map[string]bool{}
		dirPrefix := prefix
		if path != "" {
			dirPrefix += path + "/"
		}
		for key := range f.files {
			if !strings.HasPrefix(key, dirPrefix) {
				continue
			}
			rest := strings.TrimPrefix(key, dirPrefix)
			name, _, isDir := strings.Cut(rest, "/")
			if seen[name] {
				continue
			}
			seen[name] = true
			typ := "file"
			if isDir {
				typ = "dir"
			}
			full := strings.TrimPrefix(dirPrefix+name, prefix)
			items = append(items, map[string]any{"type": typ, "name": name, "path": full, "sha": "sha-" + full})
		}
		if items == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, items)
	}))
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string  `json:"message"`
			Content string  `json:"content"`
			Branch  string  `json:"branch"`
			SHA     *string `json:"sha"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		key := r.PathValue("repo") + "/" + r.PathValue("path")
		if _, exists := f.files[key]; exists && body.SHA == nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "sha wasn't supplied"})
			return
		}
		f.files[key] = body.Content
		f.commits++
		sha := fmt.Sprintf("commit-%d", f.commits)
		branch := body.Branch
		if branch == "" {
			branch = "main"
		}
		f.refs[r.PathValue("repo")+"/heads/"+branch] = sha
		writeJSON(w, http.StatusCreated, map[string]any{"commit": map[string]string{"sha": sha}})
	}))
	mux.HandleFunc("GET /repos/{owner}/{repo}/branches", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var out []map[string]any
		prefix := r.PathValue("repo") + "/heads/"
		for key, sha := range f.refs {
			if name, ok := strings.CutPrefix(key, prefix); ok {
				out = append(out, map[string]any{"name": name, "commit": map[string]string{"sha": sha}})
			}
		}
		writeJSON(w, http.StatusOK, out)
	}))
	return mux
}

func TestGateway_ResolveUsername(t *testing.T) {
	_, gw := newFakeProvider(t)
	ctx := context.Background()

	login, err := gw.ResolveUsername(ctx, goodToken)
	require.NoError(t, err)
	assert.Equal(t, "octo-admin", login)

	_, err = gw.ResolveUsername(ctx, "ghp_revoked")
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusUnauthorized, gerr.Status)
	assert.Equal(t, "resolve username", gerr.Op)
}

func TestGateway_RateLimitedIsDistinct(t *testing.T) {
	_, gw := newFakeProvider(t)

	_, err := gw.ResolveUsername(context.Background(), "ghp_throttled")
	assert.True(t, IsKind(err, KindRateLimited))

	_, err = gw.ResolveUsername(context.Background(), "ghp_exhausted")
	assert.True(t, IsKind(err, KindRateLimited))
}

func TestGateway_CreateRepositoryCollision(t *testing.T) {
	_, gw := newFakeProvider(t)
	ctx := context.Background()

	name, err := gw.CreateRepository(ctx, goodToken, "launch-repo")
	require.NoError(t, err)
	assert.Equal(t, "launch-repo", name)

	_, err = gw.CreateRepository(ctx, goodToken, "launch-repo")
	require.Error(t, err)
	assert.Equal(t, KindOther, KindOf(err))
	assert.Contains(t, err.Error(), "name already exists on this account")
}

func TestGateway_AddCollaboratorIsIdempotent(t *testing.T) {
	f, gw := newFakeProvider(t)
	ctx := context.Background()

	_, err := gw.CreateRepository(ctx, goodToken, "r")
	require.NoError(t, err)

	require.NoError(t, gw.AddCollaborator(ctx, goodToken, "octo-admin", "r", "alice"))
	require.NoError(t, gw.AddCollaborator(ctx, goodToken, "octo-admin", "r", "alice"))
	assert.Len(t, f.collaborators["r"], 1)

	require.NoError(t, gw.RemoveCollaborator(ctx, goodToken, "octo-admin", "r", "alice"))
	require.NoError(t, gw.RemoveCollaborator(ctx, goodToken, "octo-admin", "r", "alice"))
	assert.Empty(t, f.collaborators["r"])

	err = gw.AddCollaborator(ctx, goodToken, "octo-admin", "missing", "alice")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestGateway_SeedThenBranch(t *testing.T) {
	_, gw := newFakeProvider(t)
	ctx := context.Background()

	_, err := gw.CreateRepository(ctx, goodToken, "r")
	require.NoError(t, err)

	_, err = gw.BranchHeadSHA(ctx, goodToken, "octo-admin", "r", "main")
	assert.True(t, IsKind(err, KindNotFound), "empty repository has no main ref")

	commit, err := gw.CreateFile(ctx, goodToken, "octo-admin", "r", "README.md", []byte("# New Repo"), "Initial commit", "main")
	require.NoError(t, err)

	head, err := gw.BranchHeadSHA(ctx, goodToken, "octo-admin", "r", "main")
	require.NoError(t, err)
	assert.Equal(t, commit, head)

	require.NoError(t, gw.CreateBranch(ctx, goodToken, "octo-admin", "r", "alice-branch", head))
	err = gw.CreateBranch(ctx, goodToken, "octo-admin", "r", "alice-branch", head)
	assert.True(t, IsKind(err, KindOther))

	branches, err := gw.ListBranches(ctx, goodToken, "octo-admin", "r")
	require.NoError(t, err)
	names := []string{}
	for _, b := range branches {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"main", "alice-branch"}, names)
}

func TestGateway_TreeSkipsNodeModules(t *testing.T) {
	f, gw := newFakeProvider(t)
	f.files["r/README.md"] = "cmVhZG1l"
	f.files["r/src/main.go"] = "cGFja2FnZQ=="
	f.files["r/src/pkg/util.go"] = "cGFja2FnZQ=="
	f.files["r/node_modules/x/index.js"] = "eA=="
	ctx := context.Background()

	tree, err := gw.Tree(ctx, goodToken, "o", "r", "", "main", TreeOptions{})
	require.NoError(t, err)
	top := map[string]TreeNode{}
	for _, n := range tree {
		top[n.Name] = n
	}
	assert.NotContains(t, top, "node_modules")
	require.Contains(t, top, "src")
	assert.Len(t, top["src"].Children, 2)

	dirs, err := gw.Tree(ctx, goodToken, "o", "r", "", "main", TreeOptions{DirectoriesOnly: true})
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "src", dirs[0].Name)
	require.Len(t, dirs[0].Children, 1)
	assert.Equal(t, "src/pkg", dirs[0].Children[0].Path)

	file, err := gw.GetFile(ctx, goodToken, "o", "r", "src/main.go", "main")
	require.NoError(t, err)
	assert.Equal(t, "cGFja2FnZQ==", file.Content)
}

func TestGateway_UploadCreatesThenReplaces(t *testing.T) {
	f, gw := newFakeProvider(t)
	ctx := context.Background()

	first, err := gw.UploadFile(ctx, goodToken, "o", "r", "docs/a.txt", []byte("one"), "add a", "alice-branch")
	require.NoError(t, err)
	second, err := gw.UploadFile(ctx, goodToken, "o", "r", "docs/a.txt", []byte("two"), "update a", "alice-branch")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "dHdv", f.files["r/docs/a.txt"])
}
