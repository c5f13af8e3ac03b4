package domain

// Commit is one entry of the default-branch history. At most one associated
// pull request is considered per commit.
type Commit struct {
	SHA     string
	Message string
	// PullRequestNumber is the associated pull request, 0 when none.
	PullRequestNumber int
	// Detail carries either the changed files or the pull request labels,
	// depending on which history query shape produced the commit.
	Detail CommitDetail
}

// CommitDetail is the per-commit payload of a history read. The two query
// shapes are mutually exclusive, so a commit carries exactly one of the
// implementations below.
type CommitDetail interface {
	isCommitDetail()
}

// FilesDetail lists the paths changed by the commit's pull request, in the
// order the backend returned them.
type FilesDetail struct {
	Paths []string
}

// LabelsDetail lists the labels attached to the commit's pull request.
type LabelsDetail struct {
	Names []string
}

func (FilesDetail) isCommitDetail()  {}
func (LabelsDetail) isCommitDetail() {}
