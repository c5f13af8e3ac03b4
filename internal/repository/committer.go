package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"

	"go.uber.org/zap"

	"github.com/morgante/release-please/internal/domain"
)

// CreateOptions drives one branch-and-pull-request creation.
type CreateOptions struct {
	UpstreamOwner string
	UpstreamRepo  string
	Title         string
	Branch        string
	Description   string
	// PrimaryBranch is the merge base and the parent of the staged commit.
	PrimaryBranch string
	// Force overwrites the target branch even when histories diverge.
	Force bool
	// Fork pushes the branch to a fork of the upstream repository.
	Fork    bool
	Message string
}

type refRecord struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// CreateBranchAndPullRequest converts a change set into git objects, forces
// the target branch to the resulting commit and opens a pull request, or
// reuses the open one already attached to the branch. Returns the pull
// request number.
func (c *Client) CreateBranchAndPullRequest(ctx context.Context, changes domain.ChangeSet, opts CreateOptions) (int, error) {
	if len(changes) == 0 {
		return 0, fmt.Errorf("change set is empty")
	}
	headOwner, headRepo := opts.UpstreamOwner, opts.UpstreamRepo
	if opts.Fork {
		owner, repo, err := c.ensureFork(ctx, opts)
		if err != nil {
			return 0, err
		}
		headOwner, headRepo = owner, repo
	}
	baseSHA, err := c.refSHA(ctx, opts.UpstreamOwner, opts.UpstreamRepo, "heads/"+opts.PrimaryBranch)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s: %w", opts.PrimaryBranch, err)
	}
	treeSHA, err := c.createTree(ctx, headOwner, headRepo, baseSHA, changes)
	if err != nil {
		return 0, err
	}
	commitSHA, err := c.createCommit(ctx, headOwner, headRepo, opts.Message, treeSHA, baseSHA)
	if err != nil {
		return 0, err
	}
	if err := c.setBranch(ctx, headOwner, headRepo, opts.Branch, commitSHA, opts.Force); err != nil {
		return 0, err
	}
	c.log.Info("branch updated",
		zap.String("branch", opts.Branch),
		zap.String("commit", commitSHA))
	return c.openPullRequest(ctx, headOwner, opts)
}

// EditPullRequest patches a pull request's title, body and state.
func (c *Client) EditPullRequest(ctx context.Context, number int, title, body, state string) error {
	payload := map[string]string{
		"title": title,
		"body":  body,
		"state": state,
	}
	path := fmt.Sprintf("repos/%s/%s/pulls/%d", c.owner, c.repo, number)
	if err := c.rest.Request(ctx, "PATCH", path, c.params(nil), payload, nil); err != nil {
		return fmt.Errorf("failed to update pull request #%d: %w", number, err)
	}
	return nil
}

// ensureFork creates or reuses a fork of the upstream repository.
func (c *Client) ensureFork(ctx context.Context, opts CreateOptions) (string, string, error) {
	var fork struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	}
	path := fmt.Sprintf("repos/%s/%s/forks", opts.UpstreamOwner, opts.UpstreamRepo)
	if err := c.rest.Request(ctx, "POST", path, c.params(nil), map[string]any{}, &fork); err != nil {
		return "", "", fmt.Errorf("failed to ensure fork: %w", err)
	}
	return fork.Owner.Login, fork.Name, nil
}

func (c *Client) refSHA(ctx context.Context, owner, repo, ref string) (string, error) {
	var record refRecord
	path := fmt.Sprintf("repos/%s/%s/git/ref/%s", owner, repo, ref)
	if err := c.rest.Request(ctx, "GET", path, c.params(nil), nil, &record); err != nil {
		return "", err
	}
	return record.Object.SHA, nil
}

// createTree uploads one blob per changed path and builds a tree on top of
// the base commit. Paths are staged in sorted order so repeated runs produce
// identical trees.
func (c *Client) createTree(ctx context.Context, owner, repo, baseSHA string, changes domain.ChangeSet) (string, error) {
	paths := make([]string, 0, len(changes))
	for path := range changes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	type treeEntry struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	}
	entries := make([]treeEntry, 0, len(paths))
	for _, path := range paths {
		change := changes[path]
		var blob struct {
			SHA string `json:"sha"`
		}
		payload := map[string]string{
			"content":  base64.StdEncoding.EncodeToString([]byte(change.Content)),
			"encoding": "base64",
		}
		blobPath := fmt.Sprintf("repos/%s/%s/git/blobs", owner, repo)
		if err := c.rest.Request(ctx, "POST", blobPath, c.params(nil), payload, &blob); err != nil {
			return "", fmt.Errorf("failed to create blob for %s: %w", path, err)
		}
		entries = append(entries, treeEntry{
			Path: path,
			Mode: string(change.Mode),
			Type: "blob",
			SHA:  blob.SHA,
		})
	}
	var commit struct {
		Tree struct {
			SHA string `json:"sha"`
		} `json:"tree"`
	}
	commitPath := fmt.Sprintf("repos/%s/%s/git/commits/%s", owner, repo, baseSHA)
	if err := c.rest.Request(ctx, "GET", commitPath, c.params(nil), nil, &commit); err != nil {
		return "", fmt.Errorf("failed to fetch base commit %s: %w", baseSHA, err)
	}
	var tree struct {
		SHA string `json:"sha"`
	}
	payload := map[string]any{
		"base_tree": commit.Tree.SHA,
		"tree":      entries,
	}
	treePath := fmt.Sprintf("repos/%s/%s/git/trees", owner, repo)
	if err := c.rest.Request(ctx, "POST", treePath, c.params(nil), payload, &tree); err != nil {
		return "", fmt.Errorf("failed to create tree: %w", err)
	}
	return tree.SHA, nil
}

func (c *Client) createCommit(ctx context.Context, owner, repo, message, treeSHA, parentSHA string) (string, error) {
	var commit struct {
		SHA string `json:"sha"`
	}
	payload := map[string]any{
		"message": message,
		"tree":    treeSHA,
		"parents": []string{parentSHA},
	}
	path := fmt.Sprintf("repos/%s/%s/git/commits", owner, repo)
	if err := c.rest.Request(ctx, "POST", path, c.params(nil), payload, &commit); err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	return commit.SHA, nil
}

// setBranch points the branch at the commit, creating the ref when it does
// not exist yet.
func (c *Client) setBranch(ctx context.Context, owner, repo, branch, sha string, force bool) error {
	patchPath := fmt.Sprintf("repos/%s/%s/git/refs/heads/%s", owner, repo, branch)
	payload := map[string]any{
		"sha":   sha,
		"force": force,
	}
	err := c.rest.Request(ctx, "PATCH", patchPath, c.params(nil), payload, nil)
	if err == nil {
		return nil
	}
	if !IsNotFound(err) && ErrorStatus(err) != 422 {
		return fmt.Errorf("failed to update ref heads/%s: %w", branch, err)
	}
	createPath := fmt.Sprintf("repos/%s/%s/git/refs", owner, repo)
	createPayload := map[string]string{
		"ref": "refs/heads/" + branch,
		"sha": sha,
	}
	if err := c.rest.Request(ctx, "POST", createPath, c.params(nil), createPayload, nil); err != nil {
		return fmt.Errorf("failed to create ref heads/%s: %w", branch, err)
	}
	return nil
}

// openPullRequest reuses the open pull request already attached to the
// branch, or opens a new one.
func (c *Client) openPullRequest(ctx context.Context, headOwner string, opts CreateOptions) (int, error) {
	headLabel := fmt.Sprintf("%s:%s", headOwner, opts.Branch)
	params := url.Values{}
	params.Set("state", "open")
	params.Set("head", headLabel)
	params.Set("base", opts.PrimaryBranch)
	var existing []prRecord
	listPath := fmt.Sprintf("repos/%s/%s/pulls", opts.UpstreamOwner, opts.UpstreamRepo)
	if err := c.rest.Request(ctx, "GET", listPath, c.params(params), nil, &existing); err != nil {
		return 0, fmt.Errorf("failed to list pull requests for %s: %w", headLabel, err)
	}
	if len(existing) > 0 {
		c.log.Info("reusing open pull request", zap.Int("number", existing[0].Number))
		return existing[0].Number, nil
	}
	var created struct {
		Number int `json:"number"`
	}
	payload := map[string]string{
		"title": opts.Title,
		"body":  opts.Description,
		"head":  headLabel,
		"base":  opts.PrimaryBranch,
	}
	if err := c.rest.Request(ctx, "POST", listPath, c.params(nil), payload, &created); err != nil {
		return 0, fmt.Errorf("failed to create pull request: %w", err)
	}
	c.log.Info("created pull request", zap.Int("number", created.Number))
	return created.Number, nil
}
