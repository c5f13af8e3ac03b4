package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"github.com/morgante/release-please/internal/config"
)

// GithubAPI is the production implementation of the three I/O capabilities,
// backed by the go-github client.
type GithubAPI struct {
	client *github.Client
}

var _ RESTClient = (*GithubAPI)(nil)
var _ GraphQLClient = (*GithubAPI)(nil)
var _ PageFetcher = (*GithubAPI)(nil)

// NewGithubAPI creates the capability set with validation. An empty apiURL
// targets the public API; anything else is treated as an enterprise base
// URL.
func NewGithubAPI(token, apiURL string) (*GithubAPI, error) {
	if err := config.ValidateGitHubToken(token); err != nil {
		return nil, fmt.Errorf("invalid GitHub token: %w", err)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: strings.TrimSpace(token)},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)
	if apiURL != "" && apiURL != "https://api.github.com" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL: %w", err)
		}
	}
	return &GithubAPI{client: client}, nil
}

// Request issues one REST call and decodes the response into out.
func (g *GithubAPI) Request(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := path
	if len(params) > 0 {
		u = path + "?" + params.Encode()
	}
	req, err := g.client.NewRequest(method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := g.client.Do(ctx, req, out)
	if err != nil {
		return wrapRequestError(method, path, resp, err)
	}
	return nil
}

// Query posts a GraphQL document and decodes the data tree into out.
func (g *GithubAPI) Query(ctx context.Context, document string, vars map[string]any, out any) error {
	payload := map[string]any{
		"query":     document,
		"variables": vars,
	}
	req, err := g.client.NewRequest("POST", "graphql", payload)
	if err != nil {
		return fmt.Errorf("failed to build query request: %w", err)
	}
	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	resp, err := g.client.Do(ctx, req, &envelope)
	if err != nil {
		return wrapRequestError("POST", "graphql", resp, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("query failed: %s", envelope.Errors[0].Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode query result: %w", err)
		}
	}
	return nil
}

// FetchPage retrieves one page of a collection and reports whether another
// page follows, based on the response's pagination links.
func (g *GithubAPI) FetchPage(ctx context.Context, path string, params url.Values, page int, out any) (bool, error) {
	merged := url.Values{}
	for k, vals := range params {
		merged[k] = append([]string(nil), vals...)
	}
	merged.Set("page", strconv.Itoa(page))
	req, err := g.client.NewRequest("GET", path+"?"+merged.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("failed to build page request: %w", err)
	}
	resp, err := g.client.Do(ctx, req, out)
	if err != nil {
		return false, wrapRequestError("GET", path, resp, err)
	}
	return resp.NextPage != 0, nil
}

// wrapRequestError attaches the numeric status the backend reported.
func wrapRequestError(method, path string, resp *github.Response, err error) error {
	status := 0
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	} else if resp != nil {
		status = resp.StatusCode
	}
	return &RequestError{StatusCode: status, Method: method, Path: path, Err: err}
}
