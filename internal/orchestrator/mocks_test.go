package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/morgante/release-please/internal/domain"
	"github.com/morgante/release-please/internal/repository"
)

type mockReleasePRRepository struct {
	mock.Mock
}

func (m *mockReleasePRRepository) Owner() string {
	return m.Called().String(0)
}

func (m *mockReleasePRRepository) Repo() string {
	return m.Called().String(0)
}

func (m *mockReleasePRRepository) DefaultBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockReleasePRRepository) FindOpenReleasePRs(ctx context.Context, labels []string, perPage int) ([]*repository.PullRequest, error) {
	args := m.Called(ctx, labels, perPage)
	if prs, ok := args.Get(0).([]*repository.PullRequest); ok {
		return prs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReleasePRRepository) FileContentsOnBranch(ctx context.Context, path, branch string) (*domain.FileContents, error) {
	args := m.Called(ctx, path, branch)
	if contents, ok := args.Get(0).(*domain.FileContents); ok {
		return contents, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReleasePRRepository) EditPullRequest(ctx context.Context, number int, title, body, state string) error {
	return m.Called(ctx, number, title, body, state).Error(0)
}

type mockPullRequestCreator struct {
	mock.Mock
}

func (m *mockPullRequestCreator) CreateBranchAndPullRequest(ctx context.Context, changes domain.ChangeSet, opts repository.CreateOptions) (int, error) {
	args := m.Called(ctx, changes, opts)
	return args.Int(0), args.Error(1)
}

type testDeps struct {
	repo    *mockReleasePRRepository
	creator *mockPullRequestCreator
}

func newTestDeps() *testDeps {
	return &testDeps{
		repo:    &mockReleasePRRepository{},
		creator: &mockPullRequestCreator{},
	}
}

func (d *testDeps) assertExpectations(t *testing.T) {
	t.Helper()
	d.repo.AssertExpectations(t)
	d.creator.AssertExpectations(t)
}

func newTestSynchronizer(deps *testDeps) *Synchronizer {
	return NewSynchronizer(deps.repo, deps.creator, nil)
}
