package core

import (
	"context"
	"fmt"
	"time"
)

// PageInfo summarizes a stored page without holding its blocks.
type PageInfo struct {
	ID           string            `json:"id"`
	Properties   map[string]string `json:"properties,omitempty"`
	Blocks       int               `json:"blocks"`
	OpenTasks    int               `json:"open_tasks"`
	LastModified time.Time         `json:"last_modified"`
}

// Summarize builds the PageInfo of p. LastModified is left for the caller.
func Summarize(id string, p *Page) PageInfo {
	info := PageInfo{
		ID:         id,
		Properties: make(map[string]string, len(p.Properties)),
		Blocks:     len(p.Blocks),
	}
	for k, v := range p.Properties {
		info.Properties[k] = v
	}
	for _, b := range p.Blocks {
		if b.WorkflowState().Open() {
			info.OpenTasks++
		}
	}
	return info
}

// Repository defines the contract for storing and retrieving pages.
// Page ids are slash separated paths without extension (e.g. "journals/2024_01_01").
type Repository interface {
	// Initialize ensures the underlying storage is ready (e.g. create directories, git init).
	Initialize(ctx context.Context) error

	// Get loads and parses a page. Missing pages wrap ErrPageNotFound.
	Get(ctx context.Context, id string) (*Page, error)

	// Save persists a page, creating it if needed.
	Save(ctx context.Context, id string, p *Page) error

	// List returns the summary of every page whose id matches the glob pattern.
	// An empty pattern matches all pages.
	List(ctx context.Context, pattern string) ([]PageInfo, error)

	// Delete removes a page.
	Delete(ctx context.Context, id string) error
}

type contextKey string

// ChangeReasonKey is the context key for passing change reasons (commit messages) to Save/Delete.
const ChangeReasonKey contextKey = "change_reason"

// Transaction is a unit of work. Staged changes are applied together on Commit.
type Transaction interface {
	// Get retrieves a page, preferring the staged version.
	Get(ctx context.Context, id string) (*Page, error)

	// Save stages a page.
	Save(ctx context.Context, id string, p *Page) error

	// Delete stages a removal.
	Delete(ctx context.Context, id string) error

	// Commit applies all staged changes.
	Commit(ctx context.Context, changeReason string) error

	// Rollback discards all staged changes.
	Rollback(ctx context.Context) error
}

// Transactional is implemented by repositories that support transactions.
type Transactional interface {
	Begin(ctx context.Context) (Transaction, error)
}

// EventType represents the type of change in the graph.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a page.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

// Watchable is implemented by repositories that can report changes.
type Watchable interface {
	// Watch emits events for pages matching the glob pattern until ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
