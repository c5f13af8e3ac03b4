package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/morgante/release-please/internal/domain"
)

const defaultPRPageSize = 100

// PullRequest is the slice of a backend pull request the matcher and
// synchronizer need.
type PullRequest struct {
	Number         int
	Title          string
	Body           string
	Labels         []string
	HeadRef        string
	HeadLabel      string
	BaseLabel      string
	MergeCommitSHA string
	MergedAt       time.Time
}

// prRecord is the REST wire shape of a pull request.
type prRecord struct {
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	MergedAt       *time.Time `json:"merged_at"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
	Labels         []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Head struct {
		Ref   string `json:"ref"`
		Label string `json:"label"`
	} `json:"head"`
	Base struct {
		Label string `json:"label"`
	} `json:"base"`
}

func (r *prRecord) toPullRequest() *PullRequest {
	pr := &PullRequest{
		Number:         r.Number,
		Title:          r.Title,
		Body:           r.Body,
		HeadRef:        r.Head.Ref,
		HeadLabel:      r.Head.Label,
		BaseLabel:      r.Base.Label,
		MergeCommitSHA: r.MergeCommitSHA,
	}
	if r.MergedAt != nil {
		pr.MergedAt = *r.MergedAt
	}
	for _, l := range r.Labels {
		pr.Labels = append(pr.Labels, l.Name)
	}
	return pr
}

// MergedPRQuery selects which merged pull request counts as the last
// release.
type MergedPRQuery struct {
	// Labels the pull request must all carry. Empty always matches.
	Labels []string
	// PerPage is the scan window; 0 means 100.
	PerPage int
	// Component is the package prefix the head branch must encode. Empty
	// matches only un-prefixed release branches.
	Component string
	// PreRelease admits pre-release versions. The zero value excludes
	// them; callers wanting the permissive scan must opt in explicitly.
	PreRelease bool
}

// FindMergedReleasePR scans one page of closed pull requests against the
// tracked base branch, most recently merged first, and returns the first
// merged release pull request matching the query, or nil when none
// qualifies within the scanned page.
func (c *Client) FindMergedReleasePR(ctx context.Context, q MergedPRQuery) (*domain.ReleasePR, error) {
	page, err := c.listPullRequests(ctx, "closed", q.PerPage)
	if err != nil {
		return nil, err
	}
	for _, pr := range page {
		if !hasAllLabels(pr.Labels, q.Labels) {
			continue
		}
		branch, ok := c.releaseBranchFromLabel(pr.HeadLabel)
		if !ok {
			continue
		}
		if pr.MergedAt.IsZero() {
			continue
		}
		if branch.Component != q.Component {
			continue
		}
		if !q.PreRelease && branch.Version.Prerelease() != "" {
			continue
		}
		c.log.Debug("matched merged release pull request",
			zap.Int("number", pr.Number),
			zap.String("version", branch.Version.String()))
		return &domain.ReleasePR{
			Number:         pr.Number,
			MergeCommitSHA: pr.MergeCommitSHA,
			Version:        branch.Version,
		}, nil
	}
	return nil, nil
}

// FindOpenReleasePRs returns every open pull request against the tracked
// base branch carrying all the given labels.
func (c *Client) FindOpenReleasePRs(ctx context.Context, labels []string, perPage int) ([]*PullRequest, error) {
	page, err := c.listPullRequests(ctx, "open", perPage)
	if err != nil {
		return nil, err
	}
	var open []*PullRequest
	for _, pr := range page {
		if hasAllLabels(pr.Labels, labels) {
			open = append(open, pr)
		}
	}
	return open, nil
}

// listPullRequests fetches one page of pull requests against the tracked
// base branch, ordered by most recent activity. A failure consistent with
// insufficient repository access surfaces as an AuthError.
func (c *Client) listPullRequests(ctx context.Context, state string, perPage int) ([]*PullRequest, error) {
	if perPage <= 0 {
		perPage = defaultPRPageSize
	}
	baseLabel, err := c.baseLabel(ctx)
	if err != nil {
		return nil, err
	}
	base := baseLabel[strings.Index(baseLabel, ":")+1:]
	params := url.Values{}
	params.Set("state", state)
	params.Set("base", base)
	params.Set("sort", "updated")
	params.Set("direction", "desc")
	params.Set("per_page", strconv.Itoa(perPage))
	var records []prRecord
	path := fmt.Sprintf("repos/%s/%s/pulls", c.owner, c.repo)
	if err := c.rest.Request(ctx, "GET", path, c.params(params), nil, &records); err != nil {
		if isAuthStatus(ErrorStatus(err)) {
			return nil, &AuthError{Owner: c.owner, Repo: c.repo, Err: err}
		}
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}
	prs := make([]*PullRequest, 0, len(records))
	for i := range records {
		pr := records[i].toPullRequest()
		if pr.BaseLabel != "" && pr.BaseLabel != baseLabel {
			continue
		}
		prs = append(prs, pr)
	}
	return prs, nil
}

// releaseBranchFromLabel parses a head label of the form
// "<owner>:release-[<component>-]v<version>".
func (c *Client) releaseBranchFromLabel(label string) (*domain.ReleaseBranch, bool) {
	owner, ref, ok := strings.Cut(label, ":")
	if !ok || owner != c.owner {
		return nil, false
	}
	return domain.ParseReleaseBranch(ref)
}

// hasAllLabels reports whether have is a superset of want.
func hasAllLabels(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
