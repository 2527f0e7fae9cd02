package platform

import (
	"log/slog"

	"github.com/aretw0/rolo/pkg/core"
)

// options holds the internal configuration for the Rolo service.
type options struct {
	repository core.Repository
	logger     *slog.Logger
	config     map[string]interface{}
}

// Option defines a functional option for configuring Rolo.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		repository: nil,
		logger:     nil,
		config:     make(map[string]interface{}),
	}
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAutoInit enables automatic creation of the vault directory.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithMustExist ensures the vault directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithReadOnly enables read-only mode. Write operations (Save, Delete,
// Curate) return ErrReadOnly and the identity index is not persisted.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".rolo").
// Defaults to ".rolo" if not set (handled by adapter).
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithRepository allows injecting a custom storage adapter (e.g. mock, s3).
// If provided, the default filesystem adapter will be skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithMaxIterations caps the number of curation passes per run. Zero means
// the default cap.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.config["max_iterations"] = n
	}
}

// WithVCFDir sets the directory where interchange records are written by
// the curator. Empty disables the writeback rule.
func WithVCFDir(dir string) Option {
	return func(o *options) {
		o.config["vcf_dir"] = dir
	}
}

// WithWatcherErrorHandler registers a callback to handle errors occurring
// during the Watch loop. This allows applications to log or react to
// runtime watcher failures (e.g. permission denied) which are otherwise
// only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
