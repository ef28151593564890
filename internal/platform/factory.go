package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/outline/pkg/adapters/fs"
	"github.com/aretw0/outline/pkg/core"
)

// New opens the graph at uri and wraps it in a core.Service.
//
//	svc, err := outline.New("./graph", outline.WithVersioning(false))
func New(uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return core.NewService(repo, o.logger), nil
}

// Init builds and initializes the repository selected by the options.
// The uri is adapter-specific (a directory for "fs").
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.repository != nil {
		return o.repository, nil
	}

	var repo core.Repository
	var err error
	switch o.adapter {
	case "fs":
		repo, err = initFS(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func initFS(path string, o *options) (core.Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty graph path", core.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	autoInit, _ := o.config["auto_init"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	validate, _ := o.config["validate"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	gitless, explicit := o.config["gitless"].(bool)
	if !explicit {
		gitless = detectGitless(abs, systemDir, autoInit)
		if gitless && o.logger != nil {
			o.logger.Debug("auto-detected gitless mode", "path", abs, "reason", ".git missing")
		}
	}
	if !gitless && !fs.IsGitInstalled() {
		if explicit {
			return nil, fmt.Errorf("versioning requested but git is not installed")
		}
		gitless = true
	}

	return fs.NewRepository(fs.Config{
		Path:         abs,
		AutoInit:     autoInit,
		Gitless:      gitless,
		MustExist:    mustExist || !autoInit,
		ReadOnly:     readOnly,
		Validate:     validate,
		Logger:       o.logger,
		SystemDir:    systemDir,
		ErrorHandler: errorHandler,
	}), nil
}

// detectGitless decides the versioning mode of a graph that did not ask for one.
// An existing .git means versioned. Without it, a fresh graph created by
// AutoInit is versioned, while an existing graph stays plain files.
func detectGitless(root, systemDir string, autoInit bool) bool {
	if exists(filepath.Join(root, ".git")) {
		return false
	}
	if !autoInit {
		return true
	}
	return exists(filepath.Join(root, systemDir)) || exists(filepath.Join(root, "logseq"))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
