package domain

import (
	"fmt"
	"regexp"
)

// releaseBranchPattern matches branch names of the form
// release-v1.2.3 or release-<component>-v1.2.3.
var releaseBranchPattern = regexp.MustCompile(
	`^release-(?:(.+)-)?v(\d+\.\d+\.\d+(?:-[0-9A-Za-z.\-]+)?(?:\+[0-9A-Za-z.\-]+)?)$`,
)

// ReleaseBranch is the package component and version encoded in a release
// branch name. Component is empty for single-package repositories.
type ReleaseBranch struct {
	Component string
	Version   *Version
}

// ParseReleaseBranch extracts the component and version from a release
// branch name. It reports false for names that do not follow the release
// branch convention or whose version does not parse.
func ParseReleaseBranch(name string) (*ReleaseBranch, bool) {
	m := releaseBranchPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, false
	}
	version, err := NewVersion(m[2])
	if err != nil {
		return nil, false
	}
	return &ReleaseBranch{Component: m[1], Version: version}, true
}

// BranchName renders the branch back into its canonical name.
func (b *ReleaseBranch) BranchName() string {
	if b.Component == "" {
		return fmt.Sprintf("release-v%s", b.Version)
	}
	return fmt.Sprintf("release-%s-v%s", b.Component, b.Version)
}
