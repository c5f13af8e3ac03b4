package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	GithubToken   string   `mapstructure:"github_token"`
	GithubOwner   string   `mapstructure:"github_owner"`
	GithubRepo    string   `mapstructure:"github_repo"`
	GithubAPIURL  string   `mapstructure:"github_api_url"`
	DefaultBranch string   `mapstructure:"default_branch"`
	ProxyKey      string   `mapstructure:"proxy_key"`
	Fork          bool     `mapstructure:"fork"`
	Labels        []string `mapstructure:"labels"`
	Debug         bool     `mapstructure:"debug"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		GithubAPIURL: "https://api.github.com",
		Labels:       []string{"autorelease: pending"},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// GitHub token is optional - only validate if provided
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
		return fmt.Errorf("invalid github configuration: %w", err)
	}
	if c.GithubAPIURL != "" {
		u, err := url.Parse(c.GithubAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid github_api_url: %s", c.GithubAPIURL)
		}
	}
	return nil
}

// ValidateForGitHubOperations validates that GitHub token is present for operations that require it
func (c *Config) ValidateForGitHubOperations() error {
	if c.GithubToken == "" {
		return fmt.Errorf("github_token is required for GitHub operations")
	}
	return c.Validate()
}

// ValidateGitHubToken validates GitHub token format (exported for reuse)
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	// Validate token format patterns
	classicPAT := regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT := regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	appToken := regexp.MustCompile(`^ghs_[a-zA-Z0-9]{36}$`)
	oauthToken := regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}$`)
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!appToken.MatchString(token) &&
		!oauthToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".release-please")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	// Configure environment variables
	viper.SetEnvPrefix("RELEASE_PLEASE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Explicitly bind environment variables
	// BindEnv allows multiple env vars - it will check them in order
	bindings := map[string][]string{
		"github_token":   {"GITHUB_TOKEN", "RELEASE_PLEASE_GITHUB_TOKEN"},
		"github_owner":   {"GITHUB_OWNER", "RELEASE_PLEASE_GITHUB_OWNER"},
		"github_repo":    {"GITHUB_REPO", "RELEASE_PLEASE_GITHUB_REPO"},
		"github_api_url": {"GITHUB_API_URL", "RELEASE_PLEASE_GITHUB_API_URL"},
		"default_branch": {"DEFAULT_BRANCH", "RELEASE_PLEASE_DEFAULT_BRANCH"},
		"proxy_key":      {"PROXY_KEY", "RELEASE_PLEASE_PROXY_KEY"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := viper.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	// Set defaults
	defaults := DefaultConfig()
	viper.SetDefault("github_api_url", defaults.GithubAPIURL)
	viper.SetDefault("labels", defaults.Labels)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}
