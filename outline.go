package outline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/outline/internal/platform"
	"github.com/aretw0/outline/pkg/core"
)

// --- Types ---

// Page is a parsed outline document.
type Page = core.Page

// Block is one bullet of a page with its continuation lines.
type Block = core.Block

// State is a block workflow keyword.
type State = core.State

// Workflow keywords.
const (
	StateNone  = core.StateNone
	StateTodo  = core.StateTodo
	StateDoing = core.StateDoing
	StateNow   = core.StateNow
	StateLater = core.StateLater
	StateDone  = core.StateDone
)

// Service is the graph service returned by New.
type Service = core.Service

// ParseOption configures Parse and ParseFile.
type ParseOption = core.ParseOption

// WithStrict round-trip validates the parsed page.
func WithStrict(enabled bool) ParseOption {
	return core.WithValidation(enabled)
}

// WithParseLogger routes parser diagnostics to logger.
func WithParseLogger(logger *slog.Logger) ParseOption {
	return core.WithLogger(logger)
}

// --- Parsing ---

// Parse reads a whole document from r.
func Parse(r io.Reader, opts ...ParseOption) (*Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return core.ParsePage(string(data), opts...)
}

// ParseFile reads and parses the document at path.
func ParseFile(path string, opts ...ParseOption) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := core.ParsePage(string(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// NewBlock parses a single block.
func NewBlock(text string) (*Block, error) {
	return core.NewBlock(text)
}

// --- Configuration ---

// Option configures how a graph is opened.
type Option = platform.Option

// WithAutoInit creates the graph (and git repository, when versioned) if missing.
func WithAutoInit(auto bool) Option { return platform.WithAutoInit(auto) }

// WithVersioning enables or disables a git commit per write.
func WithVersioning(enabled bool) Option { return platform.WithVersioning(enabled) }

// WithMustExist requires the graph directory to exist.
func WithMustExist(must bool) Option { return platform.WithMustExist(must) }

// WithLogger sets the logger for the repository and the service.
func WithLogger(logger *slog.Logger) Option { return platform.WithLogger(logger) }

// WithRepository injects a custom storage adapter.
func WithRepository(repo core.Repository) Option { return platform.WithRepository(repo) }

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option { return platform.WithAdapter(name) }

// WithSystemDir sets the hidden directory holding the page index.
func WithSystemDir(name string) Option { return platform.WithSystemDir(name) }

// WithReadOnly rejects every write.
func WithReadOnly(enabled bool) Option { return platform.WithReadOnly(enabled) }

// WithValidation round-trip validates every page read from the graph.
func WithValidation(enabled bool) Option { return platform.WithValidation(enabled) }

// WithWatcherErrorHandler receives errors raised inside the watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens the graph at path as a Service.
func New(path string, opts ...Option) (*Service, error) {
	return platform.New(path, opts...)
}

// Init initializes a repository explicitly.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// FindGraphRoot walks up from dir to the nearest graph root.
func FindGraphRoot(dir string) (string, error) {
	return platform.FindRoot(dir)
}

// --- Operations ---

// MoveDone moves the DONE blocks of page src to page dst in the graph at path.
func MoveDone(ctx context.Context, path, src, dst string, opts ...Option) (int, error) {
	svc, err := New(path, opts...)
	if err != nil {
		return 0, err
	}
	return svc.MoveDone(ctx, src, dst)
}
