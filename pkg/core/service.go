package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Service handles the business logic for pages.
type Service struct {
	repo   Repository
	logger *slog.Logger

	mu       sync.RWMutex
	watchers int
}

// NewService creates a new Service. A nil logger discards output.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// GetPage retrieves a page.
func (s *Service) GetPage(ctx context.Context, id string) (*Page, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: page ID cannot be empty", ErrInvalidInput)
	}
	return s.repo.Get(ctx, id)
}

// SavePage stores a page.
func (s *Service) SavePage(ctx context.Context, id string, p *Page) error {
	if id == "" {
		return fmt.Errorf("%w: page ID cannot be empty", ErrInvalidInput)
	}
	if p == nil {
		return fmt.Errorf("%w: page cannot be nil", ErrInvalidInput)
	}
	return s.repo.Save(ctx, id, p)
}

// ListPages returns the summaries of the pages matching pattern.
func (s *Service) ListPages(ctx context.Context, pattern string) ([]PageInfo, error) {
	return s.repo.List(ctx, pattern)
}

// DeletePage removes a page.
func (s *Service) DeletePage(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: page ID cannot be empty", ErrInvalidInput)
	}
	return s.repo.Delete(ctx, id)
}

// CheckResult is the outcome of validating one page.
type CheckResult struct {
	ID  string
	Err error
}

// OK reports whether the page parsed and rendered back unchanged.
func (r CheckResult) OK() bool { return r.Err == nil }

// CheckPages parses every page matching pattern and verifies its round trip.
// Per-page failures are reported in the results, not as the returned error.
func (s *Service) CheckPages(ctx context.Context, pattern string) ([]CheckResult, error) {
	infos, err := s.repo.List(ctx, pattern)
	if err != nil {
		return nil, err
	}

	results := make([]CheckResult, 0, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := CheckResult{ID: info.ID}
		p, err := s.repo.Get(ctx, info.ID)
		if err == nil {
			err = p.Verify()
		}
		if err != nil {
			res.Err = err
			s.logger.Warn("page failed round trip", "id", info.ID, "error", err)
		}
		results = append(results, res)
	}
	return results, nil
}

// MoveDone moves the DONE blocks of srcID, with their children, to the end
// of dstID. A missing destination page is created.
func (s *Service) MoveDone(ctx context.Context, srcID, dstID string) (int, error) {
	if srcID == dstID {
		return 0, fmt.Errorf("%w: source and destination are the same page", ErrInvalidInput)
	}
	src, err := s.GetPage(ctx, srcID)
	if err != nil {
		return 0, err
	}
	dst, err := s.GetPage(ctx, dstID)
	if errors.Is(err, ErrPageNotFound) {
		dst, err = NewPage(), nil
	}
	if err != nil {
		return 0, err
	}

	n := MoveDone(src, dst)
	if n == 0 {
		return 0, nil
	}
	reason := fmt.Sprintf("move %d done blocks from %s to %s", n, srcID, dstID)
	if err := s.saveAll(ctx, reason, []string{srcID, dstID}, []*Page{src, dst}); err != nil {
		return 0, err
	}
	s.logger.Info("moved done blocks", "from", srcID, "to", dstID, "blocks", n)
	return n, nil
}

// MoveBlocks moves every block of srcID under the block of dstID selected
// by opts.Pattern.
func (s *Service) MoveBlocks(ctx context.Context, srcID, dstID string, opts MoveOptions) (int, error) {
	if srcID == dstID {
		return 0, fmt.Errorf("%w: source and destination are the same page", ErrInvalidInput)
	}
	src, err := s.GetPage(ctx, srcID)
	if err != nil {
		return 0, err
	}
	dst, err := s.GetPage(ctx, dstID)
	if err != nil {
		return 0, err
	}

	n, err := MoveUnder(src, dst, opts)
	if err != nil {
		return 0, fmt.Errorf("move into %s: %w", dstID, err)
	}
	if n == 0 {
		return 0, nil
	}
	reason := fmt.Sprintf("move %d blocks from %s to %s", n, srcID, dstID)
	if err := s.saveAll(ctx, reason, []string{srcID, dstID}, []*Page{src, dst}); err != nil {
		return 0, err
	}
	s.logger.Info("moved blocks", "from", srcID, "to", dstID, "blocks", n, "order", opts.Order.String())
	return n, nil
}

// saveAll writes pages in one transaction when the repository supports it.
func (s *Service) saveAll(ctx context.Context, reason string, ids []string, pages []*Page) error {
	ctx = context.WithValue(ctx, ChangeReasonKey, reason)
	if _, ok := s.repo.(Transactional); ok {
		return s.WithTransaction(ctx, func(tx Transaction) error {
			for i, id := range ids {
				if err := tx.Save(ctx, id, pages[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for i, id := range ids {
		if err := s.repo.Save(ctx, id, pages[i]); err != nil {
			return fmt.Errorf("save %s: %w", id, err)
		}
	}
	return nil
}

// WithTransaction executes fn within a transaction. The commit message is
// taken from ChangeReasonKey when present.
func (s *Service) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	msg := "batch transaction"
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	return tx.Commit(ctx, msg)
}

// Begin initiates a transaction manually.
func (s *Service) Begin(ctx context.Context) (Transaction, error) {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return nil, errors.New("repository does not support transactions")
	}
	return tr.Begin(ctx)
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}
	events, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.watchers++
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.watchers--
		s.mu.Unlock()
	}()
	return events, nil
}
