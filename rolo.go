package rolo

import (
	"log/slog"

	"github.com/aretw0/rolo/internal/platform"
	"github.com/aretw0/rolo/pkg/core"
)

// --- Types ---

// Service is a public alias for the application facade.
type Service = platform.Service

// --- Configuration ---

// Option defines a functional option for configuring Rolo.
type Option = platform.Option

// WithAutoInit enables automatic creation of the vault directory.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithMustExist ensures the vault directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".rolo").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithMaxIterations caps the number of curation passes per run.
func WithMaxIterations(n int) Option {
	return platform.WithMaxIterations(n)
}

// WithVCFDir sets the directory where interchange records are written.
func WithVCFDir(dir string) Option {
	return platform.WithVCFDir(dir)
}

// WithWatcherErrorHandler registers a callback for watch loop errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a new Rolo Service.
func New(path string, opts ...Option) (*Service, error) {
	return platform.New(path, opts...)
}

// Init initializes a repository explicitly.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}
