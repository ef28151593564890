package fs

import (
	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string `json:"path"`
	SystemDir     string `json:"system_dir"`
	CacheSize     int    `json:"cache_size"`
	Gitless       bool   `json:"gitless"`
	ReadOnly      bool   `json:"read_only"`
	Validate      bool   `json:"validate"`
	WatcherActive bool   `json:"watcher_active"`
	Uncommitted   *int   `json:"uncommitted,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	state := RepositoryState{
		Path:          r.Path,
		SystemDir:     r.config.SystemDir,
		CacheSize:     r.cache.Len(),
		Gitless:       r.config.Gitless,
		ReadOnly:      r.config.ReadOnly,
		Validate:      r.config.Validate,
		WatcherActive: r.watcherActive,
	}
	r.mu.RUnlock()

	if !r.config.Gitless && r.git.IsRepo() {
		if n, err := r.git.Uncommitted(); err == nil {
			state.Uncommitted = &n
		}
	}
	return state
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}
