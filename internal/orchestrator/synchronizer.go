package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/morgante/release-please/internal/domain"
	"github.com/morgante/release-please/internal/repository"
)

// ReleasePRRepository is the slice of the host client the synchronizer
// needs.
type ReleasePRRepository interface {
	Owner() string
	Repo() string
	DefaultBranch(ctx context.Context) (string, error)
	FindOpenReleasePRs(ctx context.Context, labels []string, perPage int) ([]*repository.PullRequest, error)
	FileContentsOnBranch(ctx context.Context, path, branch string) (*domain.FileContents, error)
	EditPullRequest(ctx context.Context, number int, title, body, state string) error
}

// PullRequestCreator converts a change set into a pushed branch and an open
// pull request.
type PullRequestCreator interface {
	CreateBranchAndPullRequest(ctx context.Context, changes domain.ChangeSet, opts repository.CreateOptions) (int, error)
}

// Synchronizer converges the open release pull request to a desired state.
type Synchronizer struct {
	repo    ReleasePRRepository
	creator PullRequestCreator
	log     *zap.Logger
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(repo ReleasePRRepository, creator PullRequestCreator, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		repo:    repo,
		creator: creator,
		log:     log,
	}
}

// Synchronize creates or updates the release pull request described by the
// descriptor. It returns the pull request number, or 0 when nothing was
// touched: either the open release pull request already matches the desired
// state, or every content update was omitted. Re-running with the same
// descriptor is always safe.
func (s *Synchronizer) Synchronize(ctx context.Context, d *domain.PullRequestDescriptor) (int, error) {
	if err := ValidateDescriptor(d); err != nil {
		return 0, fmt.Errorf("invalid descriptor: %w", err)
	}
	branch, err := s.repo.DefaultBranch(ctx)
	if err != nil {
		return 0, err
	}
	open, err := s.repo.FindOpenReleasePRs(ctx, d.Labels, openPRPageSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list open release pull requests: %w", err)
	}
	existing := matchBranch(open, d.Branch)
	if existing != nil && existing.Body == d.Body {
		s.log.Info("release pull request already up to date",
			zap.Int("number", existing.Number))
		return 0, nil
	}
	changes, err := s.buildChangeSet(ctx, branch, d.Updates)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		s.log.Warn("no content updates applied, leaving release pull request untouched",
			zap.String("branch", d.Branch))
		return 0, nil
	}
	number, err := s.creator.CreateBranchAndPullRequest(ctx, changes, repository.CreateOptions{
		UpstreamOwner: s.repo.Owner(),
		UpstreamRepo:  s.repo.Repo(),
		Title:         d.Title,
		Branch:        d.Branch,
		Description:   d.Body,
		PrimaryBranch: branch,
		Force:         true,
		Fork:          d.Fork,
		Message:       d.Title,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create release branch and pull request: %w", err)
	}
	if existing != nil {
		// The creation step may have been a no-op branch update on the
		// already-open pull request; its metadata still needs to converge.
		if err := s.repo.EditPullRequest(ctx, existing.Number, d.Title, d.Body, "open"); err != nil {
			return 0, err
		}
		s.log.Info("updated release pull request", zap.Int("number", existing.Number))
		return existing.Number, nil
	}
	s.log.Info("opened release pull request", zap.Int("number", number))
	return number, nil
}

// buildChangeSet resolves every content update against the base branch.
// A missing file is fatal to the single update only: creatable updates
// proceed with absent current content, the rest are skipped and recorded.
func (s *Synchronizer) buildChangeSet(ctx context.Context, branch string, updates []domain.ContentUpdate) (domain.ChangeSet, error) {
	changes := domain.ChangeSet{}
	for _, update := range updates {
		var current *string
		if update.Contents != nil {
			text := update.Contents.ParsedContent
			current = &text
		} else {
			contents, err := s.repo.FileContentsOnBranch(ctx, update.Path, branch)
			switch {
			case err == nil:
				text := contents.ParsedContent
				current = &text
			case repository.IsNotFound(err) && update.CreateIfMissing:
				// Proceed with absent current content.
			case repository.IsNotFound(err):
				s.log.Warn("file missing on base branch, skipping update",
					zap.String("path", update.Path))
				continue
			default:
				return nil, fmt.Errorf("failed to fetch %s: %w", update.Path, err)
			}
		}
		updated := update.Transform(current)
		if updated == nil {
			continue
		}
		changes[update.Path] = domain.Change{
			Content: *updated,
			Mode:    domain.FileModeBlob,
		}
	}
	return changes, nil
}

// matchBranch finds the open pull request attached to the release branch.
// Containment keeps qualified refs matching bare branch names.
func matchBranch(open []*repository.PullRequest, branch string) *repository.PullRequest {
	for _, pr := range open {
		if strings.Contains(pr.HeadRef, branch) {
			return pr
		}
	}
	return nil
}
