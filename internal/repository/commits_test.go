package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/morgante/release-please/internal/domain"
)

func historyPage(nodes []commitNode, cursor string, hasNext bool) commitHistoryResponse {
	var resp commitHistoryResponse
	resp.Repository.Ref.Target.History.Nodes = nodes
	resp.Repository.Ref.Target.History.PageInfo.EndCursor = cursor
	resp.Repository.Ref.Target.History.PageInfo.HasNextPage = hasNext
	return resp
}

func fileCommit(sha string, number int, paths ...string) commitNode {
	node := commitNode{Oid: sha, Message: "commit " + sha}
	if number > 0 {
		pr := prNode{Number: number}
		for _, p := range paths {
			pr.Files.Nodes = append(pr.Files.Nodes, pathNode{Path: p})
		}
		node.AssociatedPullRequests.Nodes = []prNode{pr}
	}
	return node
}

func labelCommit(sha string, number int, labels ...string) commitNode {
	node := commitNode{Oid: sha, Message: "commit " + sha}
	if number > 0 {
		pr := prNode{Number: number}
		for _, l := range labels {
			pr.Labels.Nodes = append(pr.Labels.Nodes, nameNode{Name: l})
		}
		node.AssociatedPullRequests.Nodes = []prNode{pr}
	}
	return node
}

func stubHistoryPage(caps *testCapabilities, cursor string, resp commitHistoryResponse) *mock.Call {
	matchCursor := mock.MatchedBy(func(vars map[string]any) bool {
		got, ok := vars["cursor"].(string)
		if cursor == "" {
			return !ok
		}
		return ok && got == cursor
	})
	return caps.graphql.On("Query", mock.Anything, mock.Anything, matchCursor, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(3).(*commitHistoryResponse)
			*out = resp
		}).
		Return(nil)
}

func TestClient_CommitsSince(t *testing.T) {
	ctx := context.Background()
	t.Run("Should stop at the boundary sha on a later page, excluding it", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		stubHistoryPage(caps, "", historyPage([]commitNode{
			fileCommit("sha-a", 1, "a.go"),
			fileCommit("sha-b", 2, "b.go"),
		}, "cursor-1", true)).Once()
		stubHistoryPage(caps, "cursor-1", historyPage([]commitNode{
			fileCommit("sha-c", 3, "c.go"),
			fileCommit("sha-boundary", 4),
			fileCommit("sha-d", 5),
		}, "", false)).Once()
		commits, err := client.CommitsSince(ctx, CommitHistoryQuery{Boundary: "sha-boundary"})
		require.NoError(t, err)
		require.Len(t, commits, 3)
		assert.Equal(t, "sha-a", commits[0].SHA)
		assert.Equal(t, "sha-b", commits[1].SHA)
		assert.Equal(t, "sha-c", commits[2].SHA)
		caps.assertExpectations(t)
	})
	t.Run("Should walk the full history when no boundary is given", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		stubHistoryPage(caps, "", historyPage([]commitNode{
			fileCommit("sha-a", 1, "a.go"),
		}, "", false)).Once()
		commits, err := client.CommitsSince(ctx, CommitHistoryQuery{})
		require.NoError(t, err)
		assert.Len(t, commits, 1)
	})
	t.Run("Should carry ordered file paths on the file query shape", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		matchDoc := mock.MatchedBy(func(doc string) bool { return doc == commitsWithFilesQuery })
		caps.graphql.On("Query", mock.Anything, matchDoc, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				out := args.Get(3).(*commitHistoryResponse)
				*out = historyPage([]commitNode{
					fileCommit("sha-a", 9, "src/one.go", "src/two.go"),
				}, "", false)
			}).
			Return(nil).
			Once()
		commits, err := client.CommitsSince(ctx, CommitHistoryQuery{})
		require.NoError(t, err)
		require.Len(t, commits, 1)
		assert.Equal(t, 9, commits[0].PullRequestNumber)
		detail, ok := commits[0].Detail.(domain.FilesDetail)
		require.True(t, ok)
		assert.Equal(t, []string{"src/one.go", "src/two.go"}, detail.Paths)
		caps.assertExpectations(t)
	})
	t.Run("Should carry labels on the label query shape", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		matchDoc := mock.MatchedBy(func(doc string) bool { return doc == commitsWithLabelsQuery })
		caps.graphql.On("Query", mock.Anything, matchDoc, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				out := args.Get(3).(*commitHistoryResponse)
				*out = historyPage([]commitNode{
					labelCommit("sha-a", 9, "autorelease: pending"),
				}, "", false)
			}).
			Return(nil).
			Once()
		commits, err := client.CommitsSince(ctx, CommitHistoryQuery{WithLabels: true})
		require.NoError(t, err)
		require.Len(t, commits, 1)
		detail, ok := commits[0].Detail.(domain.LabelsDetail)
		require.True(t, ok)
		assert.Equal(t, []string{"autorelease: pending"}, detail.Names)
		caps.assertExpectations(t)
	})
	t.Run("Should scope the history to the path filter", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		matchPath := mock.MatchedBy(func(vars map[string]any) bool {
			path, ok := vars["path"].(string)
			return ok && path == "packages/mypkg"
		})
		caps.graphql.On("Query", mock.Anything, mock.Anything, matchPath, mock.Anything).
			Run(func(args mock.Arguments) {
				out := args.Get(3).(*commitHistoryResponse)
				*out = historyPage(nil, "", false)
			}).
			Return(nil).
			Once()
		_, err := client.CommitsSince(ctx, CommitHistoryQuery{Path: "packages/mypkg"})
		require.NoError(t, err)
		caps.assertExpectations(t)
	})
	t.Run("Should retry a gateway failure exactly three extra times before surfacing", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		caps.graphql.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&RequestError{StatusCode: 502, Method: "POST", Path: "graphql"}).
			Times(4)
		_, err := client.CommitsSince(ctx, CommitHistoryQuery{})
		require.Error(t, err)
		assert.True(t, IsTransient(err))
		caps.assertExpectations(t)
	})
	t.Run("Should surface other failures immediately without retry", func(t *testing.T) {
		caps := newTestCapabilities()
		client := newTestClient(t, caps)
		caps.graphql.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&RequestError{StatusCode: 500, Method: "POST", Path: "graphql"}).
			Once()
		_, err := client.CommitsSince(ctx, CommitHistoryQuery{})
		require.Error(t, err)
		caps.assertExpectations(t)
	})
}
