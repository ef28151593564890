// Package fs stores a graph of outline pages as markdown files on disk.
package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/outline/internal/fsutil"
	"github.com/aretw0/outline/pkg/core"
	"github.com/aretw0/outline/pkg/git"
)

const (
	// DefaultSystemDir holds the page index and other private state.
	DefaultSystemDir = ".outline"

	pageExt = ".md"
)

// Repository implements core.Repository using the filesystem and, optionally, Git.
type Repository struct {
	Path   string
	git    *git.Client
	cache  *cache
	config Config

	mu            sync.RWMutex
	watcherActive bool
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	AutoInit  bool // git init the graph when it is not a repository yet
	Gitless   bool // no commits; plain file writes
	MustExist bool
	ReadOnly  bool // reject Save, Delete and Commit with core.ErrReadOnly
	Validate  bool // parse pages with round-trip validation
	Logger    *slog.Logger
	SystemDir string // defaults to DefaultSystemDir

	// ErrorHandler receives asynchronous errors (watcher failures, panics).
	ErrorHandler func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config: config,
		cache:  newCache(config.Path, config.SystemDir),
	}
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	if r.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	return NewTransaction(r), nil
}

// Initialize prepares the graph directory and, unless gitless, its git repository.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("graph path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("graph path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create graph directory: %w", err)
	}

	if r.config.Gitless {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit || r.config.ReadOnly {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}
	if r.config.ReadOnly {
		return nil
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(fmt.Sprintf("chore: configure %s ignore", r.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the system dir and the lock file out of git.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	wanted := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}
	var missing []string
	for _, entry := range wanted {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// pagePath maps a page id to its file, relative (slash separated) and absolute.
func (r *Repository) pagePath(id string) (rel, full string, err error) {
	id = strings.TrimSuffix(id, pageExt)
	if id == "" || !filepath.IsLocal(filepath.FromSlash(id)) || path.Clean(id) != id {
		return "", "", fmt.Errorf("%w: invalid page id %q", core.ErrInvalidInput, id)
	}
	rel = id + pageExt
	return rel, filepath.Join(r.Path, filepath.FromSlash(rel)), nil
}

// Get reads and parses a page.
func (r *Repository) Get(ctx context.Context, id string) (*core.Page, error) {
	_, full, err := r.pagePath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrPageNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", id, err)
	}

	p, err := core.ParsePage(string(data),
		core.WithValidation(r.config.Validate),
		core.WithLogger(r.config.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", id, err)
	}
	return p, nil
}

// Save writes the tab-indented text of p and, when versioned, commits it.
//
// The commit message is taken from core.ChangeReasonKey when present.
func (r *Repository) Save(ctx context.Context, id string, p *core.Page) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if p == nil {
		return fmt.Errorf("%w: nil page", core.ErrInvalidInput)
	}
	rel, err := r.writePage(id, p)
	if err != nil {
		return err
	}

	if !r.config.Gitless {
		unlock, err := r.git.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()

		if err := r.git.Add(rel); err != nil {
			return fmt.Errorf("failed to git add: %w", err)
		}
		if err := r.git.Commit(changeReason(ctx, "update "+id)); err != nil {
			return fmt.Errorf("failed to git commit: %w", err)
		}
	}

	r.config.Logger.Debug("saved page", "id", id, "blocks", p.Len())
	return nil
}

// writePage writes p atomically and refreshes its cache entry.
func (r *Repository) writePage(id string, p *core.Page) (string, error) {
	rel, full, err := r.pagePath(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(full, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write page %s: %w", id, err)
	}

	if info, err := os.Stat(full); err == nil {
		summary := core.Summarize(strings.TrimSuffix(rel, pageExt), p)
		summary.LastModified = info.ModTime()
		r.cache.Set(rel, newIndexEntry(summary))
	}
	return rel, nil
}

// List walks the graph and summarizes every page whose id matches pattern.
//
// Strategy:
//  1. Load the index from the system dir.
//  2. Walk the tree, skipping .git, logseq/ and the system dir.
//  3. For each page: serve the cached summary when its mtime matches,
//     otherwise parse it and update the index.
//  4. Prune entries of vanished files and save the index.
//
// Pages that fail to parse are still listed, with an empty summary.
func (r *Repository) List(ctx context.Context, pattern string) ([]core.PageInfo, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: invalid pattern %q", core.ErrInvalidInput, pattern)
	}

	if err := r.cache.Load(); err != nil {
		r.config.Logger.Warn("failed to load page index", "error", err)
	}

	var infos []core.PageInfo
	seen := make(map[string]bool)

	err := filepath.WalkDir(r.Path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p != r.Path && r.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != pageExt || strings.HasPrefix(d.Name(), fsutil.TempFilePrefix) {
			return nil
		}

		relPath, err := filepath.Rel(r.Path, p)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		id := strings.TrimSuffix(relPath, pageExt)
		seen[relPath] = true

		if ok, _ := doublestar.Match(pattern, id); !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()

		if entry, hit := r.cache.Get(relPath, mtime); hit {
			infos = append(infos, entry.info())
			return nil
		}

		page, err := r.Get(ctx, id)
		if err != nil {
			r.config.Logger.Debug("listing unparseable page", "id", id, "error", err)
			infos = append(infos, core.PageInfo{ID: id, LastModified: mtime})
			return nil
		}
		summary := core.Summarize(id, page)
		summary.LastModified = mtime
		r.cache.Set(relPath, newIndexEntry(summary))
		infos = append(infos, summary)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.cache.Prune(seen)
	if !r.config.ReadOnly {
		if err := r.cache.Save(); err != nil {
			r.config.Logger.Warn("failed to save page index", "error", err)
		}
	}
	return infos, nil
}

func (r *Repository) skipDir(name string) bool {
	return name == ".git" || name == "logseq" || name == r.config.SystemDir
}

// Delete removes a page and, when versioned, commits the removal.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	rel, full, err := r.pagePath(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", core.ErrPageNotFound, id)
	}
	defer r.cache.Delete(rel)

	if r.config.Gitless {
		if err := os.Remove(full); err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		return nil
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := os.Remove(full); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	if err := r.git.Rm(rel); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}
	if err := r.git.Commit(changeReason(ctx, "delete "+id)); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// IsGitInstalled checks if git is available in the system path.
func IsGitInstalled() bool {
	return git.IsInstalled()
}

func changeReason(ctx context.Context, fallback string) string {
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		return val
	}
	return fallback
}

var (
	_ core.Repository    = (*Repository)(nil)
	_ core.Transactional = (*Repository)(nil)
	_ core.Watchable     = (*Repository)(nil)
	_ core.Transaction   = (*Transaction)(nil)
)
