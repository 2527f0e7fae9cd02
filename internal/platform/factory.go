package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/rolo/pkg/adapters/fs"
	"github.com/aretw0/rolo/pkg/core"
	"github.com/aretw0/rolo/pkg/curator"
	"github.com/aretw0/rolo/pkg/relsync"
)

// New assembles a full vault service: storage adapter, relationship sync
// engine, and the curation pipeline with the standard rules registered.
//
//	svc, err := rolo.New("./path/to/vault", rolo.WithAutoInit(true))
func New(path string, opts ...Option) (*Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := Init(path, opts...)
	if err != nil {
		return nil, err
	}

	engine := relsync.NewEngine(repo, o.logger)
	registry := curator.NewRegistry()

	vcfDir, _ := o.config["vcf_dir"].(string)
	finisher, err := curator.RegisterStandardRules(registry, repo, engine, vcfDir)
	if err != nil {
		return nil, fmt.Errorf("failed to register curation rules: %w", err)
	}

	driver := curator.NewDriver(repo, registry, o.logger)
	driver.SetFinisher(finisher)

	maxIterations, _ := o.config["max_iterations"].(int)
	if maxIterations <= 0 {
		maxIterations = curator.DefaultMaxIterations
	}

	return &Service{
		repo:          repo,
		registry:      registry,
		engine:        engine,
		driver:        driver,
		logger:        o.logger,
		vcfDir:        vcfDir,
		maxIterations: maxIterations,
	}, nil
}

// Init initializes a vault repository based on the provided configuration.
//
// It returns the configured core.Repository.
func Init(path string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.repository != nil {
		return o.repository, nil
	}

	repo := initFS(path, o)

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}

	return repo, nil
}

// initFS handles the initialization logic for the filesystem adapter.
func initFS(path string, o *options) core.Repository {
	autoInit, _ := o.config["auto_init"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	return fs.NewRepository(fs.Config{
		Path:         path,
		AutoInit:     autoInit,
		MustExist:    mustExist || !autoInit,
		ReadOnly:     readOnly,
		SystemDir:    systemDir,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
}
