package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/morgante/release-please/internal/domain"
)

const tagPageSize = 100

// LatestTagQuery narrows which tags count when resolving the last release.
type LatestTagQuery struct {
	// Prefix is stripped from tag names before parsing, e.g. "mypkg-".
	Prefix string
	// PreRelease admits pre-release versions.
	PreRelease bool
	// BranchPrefix overrides the component looked for in release branch
	// names; when empty it is derived from Prefix.
	BranchPrefix string
}

// tagRecord is the REST wire shape of a tag listing entry.
type tagRecord struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// LatestTag resolves the most recently released version. A matched merged
// release pull request wins; otherwise every tag is scanned and the maximum
// under the release ordering is returned. Nil means no release exists yet.
func (c *Client) LatestTag(ctx context.Context, q LatestTagQuery) (*domain.Tag, error) {
	component := q.BranchPrefix
	if component == "" {
		component = strings.TrimSuffix(q.Prefix, "-")
	}
	merged, err := c.FindMergedReleasePR(ctx, MergedPRQuery{
		Component:  component,
		PreRelease: q.PreRelease,
	})
	if err != nil {
		return nil, err
	}
	if merged != nil {
		return &domain.Tag{
			Name:    merged.Version.TagName(),
			SHA:     merged.MergeCommitSHA,
			Version: merged.Version,
		}, nil
	}
	return c.latestTagFromAllTags(ctx, q)
}

// latestTagFromAllTags enumerates every tag and keeps the maximum valid
// semver under the release ordering. Later pagination entries overwrite
// earlier ones that resolve to the same version.
func (c *Client) latestTagFromAllTags(ctx context.Context, q LatestTagQuery) (*domain.Tag, error) {
	byVersion := map[string]*domain.Tag{}
	path := fmt.Sprintf("repos/%s/%s/tags", c.owner, c.repo)
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(tagPageSize))
	for page := 1; ; page++ {
		var records []tagRecord
		hasNext, err := c.pages.FetchPage(ctx, path, c.params(params), page, &records)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags: %w", err)
		}
		for _, rec := range records {
			name := rec.Name
			if q.Prefix != "" {
				trimmed, ok := strings.CutPrefix(name, q.Prefix)
				if !ok {
					continue
				}
				name = trimmed
			}
			version, err := domain.NewVersion(name)
			if err != nil {
				continue
			}
			if !q.PreRelease && version.Prerelease() != "" {
				continue
			}
			byVersion[version.String()] = &domain.Tag{
				Name:    rec.Name,
				SHA:     rec.Commit.SHA,
				Version: version,
			}
		}
		if !hasNext {
			break
		}
	}
	var latest *domain.Tag
	for _, tag := range byVersion {
		if latest == nil || domain.CompareReleaseOrder(tag.Version, latest.Version) > 0 {
			latest = tag
		}
	}
	if latest != nil {
		c.log.Debug("resolved latest tag from tag listing",
			zap.String("tag", latest.Name),
			zap.String("version", latest.Version.String()))
	}
	return latest, nil
}
