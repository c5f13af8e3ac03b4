package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/morgante/release-please/internal/config"
	"github.com/morgante/release-please/internal/orchestrator"
	"github.com/morgante/release-please/internal/repository"
)

// container holds all the dependencies for the application.

type container struct {
	cfg *config.Config
	fs  afero.Fs
	log *zap.Logger

	client *repository.Client
	sync   *orchestrator.Synchronizer
}

// newContainer creates a new container with all the dependencies.
func newContainer() (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := cfg.ValidateForGitHubOperations(); err != nil {
		return nil, err
	}
	api, err := repository.NewGithubAPI(cfg.GithubToken, cfg.GithubAPIURL)
	if err != nil {
		return nil, err
	}
	opts := []repository.Option{repository.WithLogger(log)}
	if cfg.DefaultBranch != "" {
		opts = append(opts, repository.WithDefaultBranch(cfg.DefaultBranch))
	}
	if cfg.ProxyKey != "" {
		opts = append(opts, repository.WithProxyKey(cfg.ProxyKey))
	}
	client, err := repository.NewClient(cfg.GithubOwner, cfg.GithubRepo, cfg.GithubAPIURL, api, api, api, opts...)
	if err != nil {
		return nil, err
	}

	return &container{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		log:    log,
		client: client,
		sync:   orchestrator.NewSynchronizer(client, client, log),
	}, nil
}

// newLogger builds the process logger, tagged with a run id so repeated
// invocations are distinguishable in aggregated output.
func newLogger(debug bool) (*zap.Logger, error) {
	var log *zap.Logger
	var err error
	if debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("run_id", uuid.NewString())), nil
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newReleasePRCmd())
	rootCmd.AddCommand(newLatestTagCmd())
	return nil
}
