package domain

// FileMode is the git mode staged for a changed file.
type FileMode string

// FileModeBlob is the mode for a regular file.
const FileModeBlob FileMode = "100644"

// Change is the new content staged for one path.
type Change struct {
	Content string
	Mode    FileMode
}

// ChangeSet maps file paths to their staged changes for one commit.
type ChangeSet map[string]Change

// FileContents is one file fetched from a branch. Content is the raw
// base64-encoded payload; ParsedContent is the decoded text.
type FileContents struct {
	SHA           string
	Content       string
	ParsedContent string
}

// ContentUpdate computes the new contents for one path of a release commit.
// Transform receives the current decoded text, or nil when the file is
// absent, and returns the new text or nil to leave the path out.
type ContentUpdate struct {
	Path string
	// CreateIfMissing lets the update proceed with absent current content
	// when the file does not exist on the base branch.
	CreateIfMissing bool
	// Contents, when set, is used instead of fetching the file remotely.
	Contents  *FileContents
	Transform func(current *string) *string
}

// PullRequestDescriptor is the caller-supplied desired state of the release
// pull request.
type PullRequestDescriptor struct {
	Branch  string
	Fork    bool
	Version *Version
	Title   string
	Body    string
	SHA     string
	Updates []ContentUpdate
	Labels  []string
}
