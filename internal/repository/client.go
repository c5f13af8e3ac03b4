package repository

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/morgante/release-please/internal/config"
)

// Client holds the repository coordinates and the injected I/O capabilities
// all higher-level reads and writes go through. The only mutable cell is the
// memoized default branch, set at most once per instance; distinct instances
// with different settings coexist without synchronization.
type Client struct {
	owner    string
	repo     string
	proxyKey string
	// embedded selects the hosted/proxied request decoration. Per-instance,
	// never process-global.
	embedded      bool
	defaultBranch string

	rest    RESTClient
	graphql GraphQLClient
	pages   PageFetcher
	log     *zap.Logger
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithDefaultBranch pre-resolves the default branch, skipping the lazy
// lookup entirely.
func WithDefaultBranch(branch string) Option {
	return func(c *Client) { c.defaultBranch = branch }
}

// WithProxyKey decorates requests with the hosted proxy key and switches the
// instance into embedded mode.
func WithProxyKey(key string) Option {
	return func(c *Client) {
		c.proxyKey = key
		c.embedded = true
	}
}

// WithLogger attaches a logger. A no-op logger is used when absent.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a Client with validation.
func NewClient(owner, repo, apiURL string, rest RESTClient, graphql GraphQLClient, pages PageFetcher, opts ...Option) (*Client, error) {
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}
	if rest == nil || graphql == nil || pages == nil {
		return nil, fmt.Errorf("all three I/O capabilities are required")
	}
	c := &Client{
		owner:   owner,
		repo:    repo,
		rest:    rest,
		graphql: graphql,
		pages:   pages,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if apiURL != "" {
		c.log = c.log.With(zap.String("api_url", apiURL))
	}
	return c, nil
}

// Owner returns the repository owner.
func (c *Client) Owner() string {
	return c.owner
}

// Repo returns the repository name.
func (c *Client) Repo() string {
	return c.repo
}

// DefaultBranch resolves the repository default branch. The result is
// memoized for the lifetime of the instance and never revalidated.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	if c.defaultBranch != "" {
		return c.defaultBranch, nil
	}
	var repo struct {
		DefaultBranch string `json:"default_branch"`
	}
	path := fmt.Sprintf("repos/%s/%s", c.owner, c.repo)
	if err := c.rest.Request(ctx, "GET", path, c.params(nil), nil, &repo); err != nil {
		return "", fmt.Errorf("failed to resolve default branch: %w", err)
	}
	if repo.DefaultBranch == "" {
		return "", fmt.Errorf("repository %s/%s reported no default branch", c.owner, c.repo)
	}
	c.defaultBranch = repo.DefaultBranch
	c.log.Debug("resolved default branch", zap.String("branch", c.defaultBranch))
	return c.defaultBranch, nil
}

// baseLabel is the "<owner>:<defaultBranch>" label scoping which pull
// requests count as against the tracked branch.
func (c *Client) baseLabel(ctx context.Context) (string, error) {
	branch, err := c.DefaultBranch(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", c.owner, branch), nil
}

// params copies v and applies the embedded-mode request decoration.
func (c *Client) params(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	if c.embedded && c.proxyKey != "" {
		out.Set("key", c.proxyKey)
	}
	return out
}
