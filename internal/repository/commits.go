package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/morgante/release-please/internal/domain"
)

const (
	commitPageSize = 100
	// commitQueryRetries is the number of extra attempts made when the
	// history query fails with a gateway-unavailable status while the
	// backend cache warms up.
	commitQueryRetries    = 3
	commitQueryRetryDelay = 500 * time.Millisecond
)

// commitsWithFilesQuery walks the branch history carrying the changed-file
// list of each commit's pull request.
const commitsWithFilesQuery = `
query CommitsWithFiles($owner: String!, $repo: String!, $ref: String!, $num: Int!, $cursor: String, $path: String) {
  repository(owner: $owner, name: $repo) {
    ref(qualifiedName: $ref) {
      target {
        ... on Commit {
          history(first: $num, after: $cursor, path: $path) {
            nodes {
              oid
              message
              associatedPullRequests(first: 1) {
                nodes {
                  number
                  files(first: 100) {
                    nodes {
                      path
                    }
                  }
                }
              }
            }
            pageInfo {
              endCursor
              hasNextPage
            }
          }
        }
      }
    }
  }
}`

// commitsWithLabelsQuery walks the branch history carrying the label list of
// each commit's pull request.
const commitsWithLabelsQuery = `
query CommitsWithLabels($owner: String!, $repo: String!, $ref: String!, $num: Int!, $cursor: String, $path: String) {
  repository(owner: $owner, name: $repo) {
    ref(qualifiedName: $ref) {
      target {
        ... on Commit {
          history(first: $num, after: $cursor, path: $path) {
            nodes {
              oid
              message
              associatedPullRequests(first: 1) {
                nodes {
                  number
                  labels(first: 10) {
                    nodes {
                      name
                    }
                  }
                }
              }
            }
            pageInfo {
              endCursor
              hasNextPage
            }
          }
        }
      }
    }
  }
}`

// commitHistoryResponse is the result tree of either history query shape.
type commitHistoryResponse struct {
	Repository struct {
		Ref struct {
			Target struct {
				History struct {
					Nodes    []commitNode `json:"nodes"`
					PageInfo struct {
						EndCursor   string `json:"endCursor"`
						HasNextPage bool   `json:"hasNextPage"`
					} `json:"pageInfo"`
				} `json:"history"`
			} `json:"target"`
		} `json:"ref"`
	} `json:"repository"`
}

type commitNode struct {
	Oid                    string `json:"oid"`
	Message                string `json:"message"`
	AssociatedPullRequests struct {
		Nodes []prNode `json:"nodes"`
	} `json:"associatedPullRequests"`
}

type prNode struct {
	Number int `json:"number"`
	Files  struct {
		Nodes []pathNode `json:"nodes"`
	} `json:"files"`
	Labels struct {
		Nodes []nameNode `json:"nodes"`
	} `json:"labels"`
}

type pathNode struct {
	Path string `json:"path"`
}

type nameNode struct {
	Name string `json:"name"`
}

// CommitHistoryQuery shapes a history read of the default branch.
type CommitHistoryQuery struct {
	// Boundary is the last known released sha; traversal stops there,
	// excluding it. Empty walks the full history.
	Boundary string
	// PerPage is the page size; 0 means 100.
	PerPage int
	// WithLabels selects the label query shape instead of the changed-file
	// shape. The two are mutually exclusive.
	WithLabels bool
	// Path scopes the history to commits touching the given path.
	Path string
}

// CommitsSince reads the default-branch history most-recent-first until the
// boundary sha or the end of history. Page fetches are strictly sequential.
func (c *Client) CommitsSince(ctx context.Context, q CommitHistoryQuery) ([]domain.Commit, error) {
	branch, err := c.DefaultBranch(ctx)
	if err != nil {
		return nil, err
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = commitPageSize
	}
	var commits []domain.Commit
	cursor := ""
	for {
		page, err := c.fetchCommitPage(ctx, branch, cursor, perPage, q)
		if err != nil {
			return nil, err
		}
		for _, node := range page.Repository.Ref.Target.History.Nodes {
			if node.Oid == q.Boundary {
				return commits, nil
			}
			commits = append(commits, nodeToCommit(node, q.WithLabels))
		}
		info := page.Repository.Ref.Target.History.PageInfo
		if !info.HasNextPage {
			return commits, nil
		}
		cursor = info.EndCursor
	}
}

// fetchCommitPage runs one history query, retrying only gateway-unavailable
// failures up to commitQueryRetries extra attempts. Any other failure
// propagates immediately.
func (c *Client) fetchCommitPage(ctx context.Context, branch, cursor string, perPage int, q CommitHistoryQuery) (*commitHistoryResponse, error) {
	doc := commitsWithFilesQuery
	if q.WithLabels {
		doc = commitsWithLabelsQuery
	}
	vars := map[string]any{
		"owner": c.owner,
		"repo":  c.repo,
		"ref":   "refs/heads/" + branch,
		"num":   perPage,
	}
	if cursor != "" {
		vars["cursor"] = cursor
	}
	if q.Path != "" {
		vars["path"] = q.Path
	}
	var out commitHistoryResponse
	backoff := retry.WithMaxRetries(commitQueryRetries, retry.NewConstant(commitQueryRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out = commitHistoryResponse{}
		if err := c.graphql.Query(ctx, doc, vars, &out); err != nil {
			if IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commit history page: %w", err)
	}
	return &out, nil
}

func nodeToCommit(node commitNode, withLabels bool) domain.Commit {
	commit := domain.Commit{
		SHA:     node.Oid,
		Message: node.Message,
	}
	if len(node.AssociatedPullRequests.Nodes) > 0 {
		pr := node.AssociatedPullRequests.Nodes[0]
		commit.PullRequestNumber = pr.Number
		if withLabels {
			detail := domain.LabelsDetail{}
			for _, l := range pr.Labels.Nodes {
				detail.Names = append(detail.Names, l.Name)
			}
			commit.Detail = detail
		} else {
			detail := domain.FilesDetail{}
			for _, f := range pr.Files.Nodes {
				detail.Paths = append(detail.Paths, f.Path)
			}
			commit.Detail = detail
		}
	} else if withLabels {
		commit.Detail = domain.LabelsDetail{}
	} else {
		commit.Detail = domain.FilesDetail{}
	}
	return commit
}
