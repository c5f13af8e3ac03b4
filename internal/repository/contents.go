package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/morgante/release-please/internal/domain"
)

// contentsRecord is the wire shape shared by the contents and blob
// endpoints.
type contentsRecord struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// FileContentsOnBranch fetches one file's contents on a branch. The direct
// contents endpoint is tried first; a permission-denied failure falls back
// to walking the branch tree and fetching the blob directly. Any other
// failure propagates unchanged.
func (c *Client) FileContentsOnBranch(ctx context.Context, path, branch string) (*domain.FileContents, error) {
	ref := branch
	if !strings.Contains(branch, "/") {
		ref = "heads/" + branch
	}
	contents, err := c.fileContentsWithAPI(ctx, path, ref)
	if err != nil && IsPermissionDenied(err) {
		c.log.Debug("contents endpoint denied, falling back to tree fetch",
			zap.String("path", path))
		return c.fileContentsWithTree(ctx, path, ref)
	}
	return contents, err
}

func (c *Client) fileContentsWithAPI(ctx context.Context, path, ref string) (*domain.FileContents, error) {
	params := url.Values{}
	params.Set("ref", ref)
	var record contentsRecord
	reqPath := fmt.Sprintf("repos/%s/%s/contents/%s", c.owner, c.repo, path)
	if err := c.rest.Request(ctx, "GET", reqPath, c.params(params), nil, &record); err != nil {
		return nil, err
	}
	return decodeContents(&record)
}

func (c *Client) fileContentsWithTree(ctx context.Context, path, ref string) (*domain.FileContents, error) {
	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			SHA  string `json:"sha"`
			Type string `json:"type"`
		} `json:"tree"`
	}
	treePath := fmt.Sprintf("repos/%s/%s/git/trees/%s", c.owner, c.repo, url.PathEscape(ref))
	params := url.Values{}
	params.Set("recursive", "true")
	if err := c.rest.Request(ctx, "GET", treePath, c.params(params), nil, &tree); err != nil {
		return nil, fmt.Errorf("failed to fetch tree for %s: %w", ref, err)
	}
	blobSHA := ""
	for _, entry := range tree.Tree {
		if entry.Path == path {
			blobSHA = entry.SHA
			break
		}
	}
	if blobSHA == "" {
		return nil, &RequestError{
			StatusCode: http.StatusNotFound,
			Method:     "GET",
			Path:       treePath,
			Err:        fmt.Errorf("path %s not found in tree", path),
		}
	}
	var record contentsRecord
	blobPath := fmt.Sprintf("repos/%s/%s/git/blobs/%s", c.owner, c.repo, blobSHA)
	if err := c.rest.Request(ctx, "GET", blobPath, c.params(nil), nil, &record); err != nil {
		return nil, fmt.Errorf("failed to fetch blob %s: %w", blobSHA, err)
	}
	return decodeContents(&record)
}

// decodeContents normalizes both fetch strategies to the same shape.
func decodeContents(record *contentsRecord) (*domain.FileContents, error) {
	raw := record.Content
	decoded := raw
	if record.Encoding == "base64" || record.Encoding == "" {
		// The API wraps base64 payloads with newlines.
		stripped := strings.ReplaceAll(raw, "\n", "")
		data, err := base64.StdEncoding.DecodeString(stripped)
		if err != nil {
			return nil, fmt.Errorf("failed to decode file contents: %w", err)
		}
		decoded = string(data)
	}
	return &domain.FileContents{
		SHA:           record.SHA,
		Content:       raw,
		ParsedContent: decoded,
	}, nil
}
