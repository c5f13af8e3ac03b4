package domain

// Tag is a released version and the commit it points at.
type Tag struct {
	Name    string
	SHA     string
	Version *Version
}

// ReleasePR is a merged release pull request, derived transiently from the
// pull request history and never persisted.
type ReleasePR struct {
	Number         int
	MergeCommitSHA string
	Version        *Version
}
