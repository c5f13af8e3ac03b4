package repository

import (
	"context"
	"net/url"
)

// The three I/O capabilities the client is built on. Production
// implementations live in github_impl.go; tests inject fakes so the whole
// core runs without network access.

// RESTClient issues one templated REST request and decodes the response
// payload into out.
type RESTClient interface {
	Request(ctx context.Context, method, path string, params url.Values, body, out any) error
}

// GraphQLClient executes a query document with variables and decodes the
// result tree into out.
type GraphQLClient interface {
	Query(ctx context.Context, document string, vars map[string]any, out any) error
}

// PageFetcher retrieves one page of a paginated REST collection and reports
// whether another page follows.
type PageFetcher interface {
	FetchPage(ctx context.Context, path string, params url.Values, page int, out any) (bool, error)
}
