package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/aretw0/outline/internal/fsutil"
)

type exportConfig struct {
	overwrite  bool
	allowEmpty bool
}

// ExportOption configures Page.Export.
type ExportOption func(*exportConfig)

// WithOverwrite allows Export to replace an existing file.
func WithOverwrite(overwrite bool) ExportOption {
	return func(c *exportConfig) {
		c.overwrite = overwrite
	}
}

// WithAllowEmpty allows Export to write a page that renders to nothing.
func WithAllowEmpty(allow bool) ExportOption {
	return func(c *exportConfig) {
		c.allowEmpty = allow
	}
}

// Export writes Text to path, replacing the whole file at once.
func (p *Page) Export(path string, opts ...ExportOption) error {
	var cfg exportConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	_, err := os.Stat(path)
	switch {
	case err == nil && !cfg.overwrite:
		return fmt.Errorf("%w: %s", ErrExists, path)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", path, err)
	}

	text := p.Text()
	if strings.TrimSpace(text) == "" {
		if !cfg.allowEmpty {
			return fmt.Errorf("%w: %s", ErrEmpty, path)
		}
	} else {
		text += "\n"
	}

	if err := fsutil.WriteFileAtomic(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	p.log().Debug("exported page", "path", path, "blocks", len(p.Blocks))
	return nil
}
