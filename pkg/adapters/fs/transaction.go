package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/aretw0/outline/pkg/core"
)

// ErrTransactionClosed is returned by any call after Commit or Rollback.
var ErrTransactionClosed = errors.New("transaction closed")

// Transaction implements core.Transaction for the filesystem. All staged
// pages are written, and committed to git, under a single lock.
type Transaction struct {
	repo    *Repository
	staged  map[string]*core.Page
	deleted map[string]bool
	mu      sync.Mutex
	closed  bool
}

// NewTransaction creates a new transaction.
func NewTransaction(repo *Repository) *Transaction {
	return &Transaction{
		repo:    repo,
		staged:  make(map[string]*core.Page),
		deleted: make(map[string]bool),
	}
}

// Save stages a page for saving.
func (t *Transaction) Save(ctx context.Context, id string, p *core.Page) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}
	if _, _, err := t.repo.pagePath(id); err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: nil page", core.ErrInvalidInput)
	}

	t.staged[id] = p
	delete(t.deleted, id)
	return nil
}

// Get retrieves a page, favoring staged changes.
func (t *Transaction) Get(ctx context.Context, id string) (*core.Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransactionClosed
	}
	if t.deleted[id] {
		return nil, fmt.Errorf("%w: %s (deleted in transaction)", core.ErrPageNotFound, id)
	}
	if p, ok := t.staged[id]; ok {
		return p, nil
	}
	return t.repo.Get(ctx, id)
}

// Delete stages a page for deletion.
func (t *Transaction) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}
	t.deleted[id] = true
	delete(t.staged, id)
	return nil
}

// Commit applies all staged changes.
func (t *Transaction) Commit(ctx context.Context, changeReason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}
	if t.repo.config.ReadOnly {
		return core.ErrReadOnly
	}

	if !t.repo.config.Gitless {
		unlock, err := t.repo.git.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()
	}

	var filesToAdd, filesToRm []string

	for _, id := range sortedKeys(t.staged) {
		rel, err := t.repo.writePage(id, t.staged[id])
		if err != nil {
			return err
		}
		filesToAdd = append(filesToAdd, rel)
	}

	for _, id := range sortedKeys(t.deleted) {
		rel, full, err := t.repo.pagePath(id)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove page %s: %w", id, err)
		}
		t.repo.cache.Delete(rel)
		filesToRm = append(filesToRm, rel)
	}

	if !t.repo.config.Gitless {
		if err := t.repo.git.Add(filesToAdd...); err != nil {
			return fmt.Errorf("failed to git add: %w", err)
		}
		if err := t.repo.git.Rm(filesToRm...); err != nil {
			return fmt.Errorf("failed to git rm: %w", err)
		}

		msg := changeReason
		if msg == "" {
			msg = "batch transaction update"
		}
		if err := t.repo.git.Commit(msg); err != nil {
			return fmt.Errorf("failed to git commit: %w", err)
		}
	}

	if err := t.repo.cache.Save(); err != nil {
		t.repo.config.Logger.Warn("failed to save page index", "error", err)
	}

	t.repo.config.Logger.Debug("transaction committed", "saved", len(filesToAdd), "deleted", len(filesToRm))
	t.closed = true
	return nil
}

// Rollback discards all staged changes.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.staged = nil
	t.deleted = nil
	t.closed = true
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
