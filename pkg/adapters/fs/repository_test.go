package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/outline/pkg/adapters/fs"
	"github.com/aretw0/outline/pkg/core"
	"github.com/aretw0/outline/pkg/git"
)

// setupRepo creates an initialized repository under a temp dir.
// It returns the repository and the root path of the graph.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string) {
	t.Helper()

	graph := filepath.Join(t.TempDir(), "graph")
	cfg := fs.Config{
		Path:     graph,
		AutoInit: true,
		Gitless:  true, // Default to gitless for simplicity unless overridden
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo := fs.NewRepository(cfg)
	if !cfg.MustExist && !cfg.ReadOnly {
		require.NoError(t, repo.Initialize(context.Background()))
	}
	return repo, graph
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func parse(t *testing.T, content string) *core.Page {
	t.Helper()
	p, err := core.ParsePage(content)
	require.NoError(t, err)
	return p
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		_, path := setupRepo(t)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		repo, _ := setupRepo(t, func(c *fs.Config) { c.MustExist = true })
		assert.Error(t, repo.Initialize(context.Background()))
	})

	t.Run("Read Only Does Not Create", func(t *testing.T) {
		repo, path := setupRepo(t, func(c *fs.Config) { c.ReadOnly = true })
		assert.Error(t, repo.Initialize(context.Background()))
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Inits Git Repo if AutoInit", func(t *testing.T) {
		if !fs.IsGitInstalled() {
			t.Skip("git not installed")
		}
		_, path := setupRepo(t, func(c *fs.Config) { c.Gitless = false })

		_, err := os.Stat(filepath.Join(path, ".git"))
		require.NoError(t, err)

		ignore, err := os.ReadFile(filepath.Join(path, ".gitignore"))
		require.NoError(t, err)
		assert.Contains(t, string(ignore), ".outline/")
		assert.Contains(t, string(ignore), ".outline.lock")
	})

	t.Run("Fails Without Git Repo if Not AutoInit", func(t *testing.T) {
		if !fs.IsGitInstalled() {
			t.Skip("git not installed")
		}
		dir := t.TempDir()
		repo := fs.NewRepository(fs.Config{Path: dir})
		assert.Error(t, repo.Initialize(context.Background()))
	})
}

func TestRepository_SaveGet(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepo(t)

	p := parse(t, "title:: Home\n- TODO a\n    - nested")
	require.NoError(t, repo.Save(ctx, "pages/home", p))

	data, err := os.ReadFile(filepath.Join(path, "pages", "home.md"))
	require.NoError(t, err)
	assert.Equal(t, "title:: Home\n- TODO a\n\t- nested\n", string(data))

	got, err := repo.Get(ctx, "pages/home")
	require.NoError(t, err)
	assert.Equal(t, "Home", got.Properties["title"])
	assert.Equal(t, 2, got.Len())

	// The extension is optional on ids.
	_, err = repo.Get(ctx, "pages/home.md")
	require.NoError(t, err)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrPageNotFound)

	for _, id := range []string{"", "../escape", "/abs", "a/../b"} {
		assert.ErrorIs(t, repo.Save(ctx, id, p), core.ErrInvalidInput, id)
	}
}

func TestRepository_GetValidates(t *testing.T) {
	repo, path := setupRepo(t, func(c *fs.Config) { c.Validate = true })
	writeFile(t, path, "odd.md", "- a\n  - b")

	_, err := repo.Get(context.Background(), "odd")
	assert.ErrorIs(t, err, core.ErrRoundTrip)

	writeFile(t, path, "prose.md", "hello\nworld")
	_, err = repo.Get(context.Background(), "prose")
	assert.ErrorIs(t, err, core.ErrMalformedDocument)
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepo(t)

	writeFile(t, path, "pages/a.md", "type:: note\n- TODO one\n- DONE two\n- LATER three")
	writeFile(t, path, "journals/2024_01_01.md", "- hello")
	writeFile(t, path, "journals/broken.md", "not an outline\nat all")
	writeFile(t, path, "logseq/config.md", "- ignored")
	writeFile(t, path, ".git/HEAD.md", "- ignored")
	writeFile(t, path, "assets/image.png", "binary")

	infos, err := repo.List(ctx, "")
	require.NoError(t, err)

	byID := make(map[string]core.PageInfo)
	for _, info := range infos {
		byID[info.ID] = info
	}
	require.Len(t, byID, 3)
	assert.Equal(t, 3, byID["pages/a"].Blocks)
	assert.Equal(t, 2, byID["pages/a"].OpenTasks)
	assert.Equal(t, "note", byID["pages/a"].Properties["type"])
	assert.Contains(t, byID, "journals/broken")
	assert.False(t, byID["pages/a"].LastModified.IsZero())

	journals, err := repo.List(ctx, "journals/*")
	require.NoError(t, err)
	assert.Len(t, journals, 2)

	_, err = os.Stat(filepath.Join(path, ".outline", "index.json"))
	require.NoError(t, err, "List should persist the index")

	_, err = repo.List(ctx, "[")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRepository_ListServesCache(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepo(t)
	writeFile(t, path, "a.md", "- TODO one")

	_, err := repo.List(ctx, "")
	require.NoError(t, err)

	// A fresh repository reads the persisted index.
	again := fs.NewRepository(fs.Config{Path: path, Gitless: true})
	infos, err := again.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].OpenTasks)

	state := again.State().(fs.RepositoryState)
	assert.Equal(t, 1, state.CacheSize)

	require.NoError(t, os.Remove(filepath.Join(path, "a.md")))
	infos, err = again.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, infos)
	assert.Equal(t, 0, again.State().(fs.RepositoryState).CacheSize)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepo(t)
	require.NoError(t, repo.Save(ctx, "a", parse(t, "- a")))

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err := os.Stat(filepath.Join(path, "a.md"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, repo.Delete(ctx, "a"), core.ErrPageNotFound)
}

func TestRepository_ReadOnly(t *testing.T) {
	ctx := context.Background()
	_, path := setupRepo(t)
	writeFile(t, path, "a.md", "- a")

	repo := fs.NewRepository(fs.Config{Path: path, Gitless: true, ReadOnly: true})
	require.NoError(t, repo.Initialize(ctx))

	p, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, "a", p), core.ErrReadOnly)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), core.ErrReadOnly)
	_, err = repo.Begin(ctx)
	assert.ErrorIs(t, err, core.ErrReadOnly)

	infos, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, infos, 1)
	_, err = os.Stat(filepath.Join(path, ".outline"))
	assert.True(t, os.IsNotExist(err), "read-only List must not write the index")
	assert.True(t, repo.State().(fs.RepositoryState).ReadOnly)
}

func TestRepository_Versioning(t *testing.T) {
	if !fs.IsGitInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	repo, path := setupRepo(t, func(c *fs.Config) { c.Gitless = false })
	client := git.NewClient(path, ".outline.lock", nil)

	reason := context.WithValue(ctx, core.ChangeReasonKey, "add page a")
	require.NoError(t, repo.Save(reason, "a", parse(t, "- a")))

	msg, err := client.Run("log", "-1", "--format=%s")
	require.NoError(t, err)
	assert.Equal(t, "add page a", msg)

	n, err := client.Uncommitted()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.Delete(ctx, "a"))
	msg, err = client.Run("log", "-1", "--format=%s")
	require.NoError(t, err)
	assert.Equal(t, "delete a", msg)

	state := repo.State().(fs.RepositoryState)
	require.NotNil(t, state.Uncommitted)
	assert.Zero(t, *state.Uncommitted)
	assert.Equal(t, "repository", repo.ComponentType())
}
