package repository

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mergedPRRecord(number int, headLabel string, labels ...string) prRecord {
	mergedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := prRecord{
		Number:         number,
		MergedAt:       &mergedAt,
		MergeCommitSHA: "merge-sha",
	}
	rec.Head.Label = headLabel
	rec.Base.Label = "owner:main"
	for _, l := range labels {
		rec.Labels = append(rec.Labels, struct {
			Name string `json:"name"`
		}{Name: l})
	}
	return rec
}

func stubPullRequestPage(caps *testCapabilities, state string, page []prRecord) *mock.Call {
	return caps.rest.On("Request", mock.Anything, "GET", "repos/owner/repo/pulls",
		mock.MatchedBy(func(params url.Values) bool { return params.Get("state") == state }),
		nil, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(5).(*[]prRecord)
			*out = page
		}).
		Return(nil)
}

func TestClient_FindMergedReleasePR(t *testing.T) {
	ctx := context.Background()
	t.Run("Should match a labeled release PR with the requested component", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		page := []prRecord{
			mergedPRRecord(12, "owner:release-mypkg-v1.2.3", "release-please", "autorelease: pending"),
		}
		stubPullRequestPage(caps, "closed", page)
		pr, err := client.FindMergedReleasePR(ctx, MergedPRQuery{
			Labels:     []string{"release-please"},
			Component:  "mypkg",
			PreRelease: true,
		})
		require.NoError(t, err)
		require.NotNil(t, pr)
		assert.Equal(t, 12, pr.Number)
		assert.Equal(t, "merge-sha", pr.MergeCommitSHA)
		assert.Equal(t, "1.2.3", pr.Version.String())
		caps.assertExpectations(t)
	})
	t.Run("Should return nil when the component is omitted but the branch encodes one", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		page := []prRecord{
			mergedPRRecord(12, "owner:release-mypkg-v1.2.3", "release-please"),
		}
		stubPullRequestPage(caps, "closed", page)
		pr, err := client.FindMergedReleasePR(ctx, MergedPRQuery{
			Labels:     []string{"release-please"},
			PreRelease: true,
		})
		require.NoError(t, err)
		assert.Nil(t, pr)
	})
	t.Run("Should skip PRs missing a required label", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		page := []prRecord{
			mergedPRRecord(12, "owner:release-v1.2.3", "autorelease: pending"),
		}
		stubPullRequestPage(caps, "closed", page)
		pr, err := client.FindMergedReleasePR(ctx, MergedPRQuery{
			Labels:     []string{"release-please"},
			PreRelease: true,
		})
		require.NoError(t, err)
		assert.Nil(t, pr)
	})
	t.Run("Should skip closed PRs that never merged", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		rec := mergedPRRecord(12, "owner:release-v1.2.3")
		rec.MergedAt = nil
		stubPullRequestPage(caps, "closed", []prRecord{rec})
		pr, err := client.FindMergedReleasePR(ctx, MergedPRQuery{PreRelease: true})
		require.NoError(t, err)
		assert.Nil(t, pr)
	})
	t.Run("Should skip pre-release versions unless admitted", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		page := []prRecord{
			mergedPRRecord(12, "owner:release-v1.2.3-rc.1"),
			mergedPRRecord(11, "owner:release-v1.2.2"),
		}
		stubPullRequestPage(caps, "closed", page)
		pr, err := client.FindMergedReleasePR(ctx, MergedPRQuery{PreRelease: false})
		require.NoError(t, err)
		require.NotNil(t, pr)
		assert.Equal(t, "1.2.2", pr.Version.String())
	})
	t.Run("Should skip branches outside the release convention", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		page := []prRecord{
			mergedPRRecord(12, "owner:feature/shiny"),
			mergedPRRecord(11, "other:release-v1.0.0"),
		}
		stubPullRequestPage(caps, "closed", page)
		pr, err := client.FindMergedReleasePR(ctx, MergedPRQuery{PreRelease: true})
		require.NoError(t, err)
		assert.Nil(t, pr)
	})
	t.Run("Should synthesize an auth failure when listing is denied", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		caps.rest.On("Request", mock.Anything, "GET", "repos/owner/repo/pulls",
			mock.Anything, nil, mock.Anything).
			Return(&RequestError{StatusCode: 404, Method: "GET", Path: "repos/owner/repo/pulls"})
		_, err := client.FindMergedReleasePR(ctx, MergedPRQuery{PreRelease: true})
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "owner", authErr.Owner)
	})
	t.Run("Should propagate other listing failures unchanged", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		caps.rest.On("Request", mock.Anything, "GET", "repos/owner/repo/pulls",
			mock.Anything, nil, mock.Anything).
			Return(&RequestError{StatusCode: 500, Method: "GET", Path: "repos/owner/repo/pulls"})
		_, err := client.FindMergedReleasePR(ctx, MergedPRQuery{PreRelease: true})
		require.Error(t, err)
		var authErr *AuthError
		assert.False(t, errors.As(err, &authErr))
	})
}

func TestClient_FindOpenReleasePRs(t *testing.T) {
	ctx := context.Background()
	t.Run("Should return every open PR carrying all required labels", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		one := prRecord{Number: 1}
		one.Head.Ref = "release-v1.3.0"
		one.Base.Label = "owner:main"
		one.Labels = append(one.Labels, struct {
			Name string `json:"name"`
		}{Name: "autorelease: pending"})
		two := prRecord{Number: 2}
		two.Base.Label = "owner:main"
		stubPullRequestPage(caps, "open", []prRecord{one, two})
		open, err := client.FindOpenReleasePRs(ctx, []string{"autorelease: pending"}, 0)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, 1, open[0].Number)
		assert.Equal(t, "release-v1.3.0", open[0].HeadRef)
	})
	t.Run("Should match everything when no labels are required", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		one := prRecord{Number: 1}
		one.Base.Label = "owner:main"
		stubPullRequestPage(caps, "open", []prRecord{one})
		open, err := client.FindOpenReleasePRs(ctx, nil, 0)
		require.NoError(t, err)
		assert.Len(t, open, 1)
	})
	t.Run("Should drop PRs against other base branches", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		one := prRecord{Number: 1}
		one.Base.Label = "owner:develop"
		stubPullRequestPage(caps, "open", []prRecord{one})
		open, err := client.FindOpenReleasePRs(ctx, nil, 0)
		require.NoError(t, err)
		assert.Empty(t, open)
	})
}
