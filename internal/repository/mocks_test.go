package repository

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock for RESTClient
type mockRESTClient struct {
	mock.Mock
}

func (m *mockRESTClient) Request(ctx context.Context, method, path string, params url.Values, body, out any) error {
	args := m.Called(ctx, method, path, params, body, out)
	return args.Error(0)
}

// Mock for GraphQLClient
type mockGraphQLClient struct {
	mock.Mock
}

func (m *mockGraphQLClient) Query(ctx context.Context, document string, vars map[string]any, out any) error {
	args := m.Called(ctx, document, vars, out)
	return args.Error(0)
}

// Mock for PageFetcher
type mockPageFetcher struct {
	mock.Mock
}

func (m *mockPageFetcher) FetchPage(ctx context.Context, path string, params url.Values, page int, out any) (bool, error) {
	args := m.Called(ctx, path, params, page, out)
	return args.Bool(0), args.Error(1)
}

type testCapabilities struct {
	rest    *mockRESTClient
	graphql *mockGraphQLClient
	pages   *mockPageFetcher
}

func newTestCapabilities() *testCapabilities {
	return &testCapabilities{
		rest:    new(mockRESTClient),
		graphql: new(mockGraphQLClient),
		pages:   new(mockPageFetcher),
	}
}

func (c *testCapabilities) assertExpectations(t *testing.T) {
	c.rest.AssertExpectations(t)
	c.graphql.AssertExpectations(t)
	c.pages.AssertExpectations(t)
}

// newTestClient builds a client over the mocked capabilities with the
// default branch pre-resolved.
func newTestClient(t *testing.T, caps *testCapabilities, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithDefaultBranch("main")}, opts...)
	client, err := NewClient("owner", "repo", "https://api.github.com", caps.rest, caps.graphql, caps.pages, opts...)
	require.NoError(t, err)
	return client
}
