package domain

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version wraps semver.Version for additional methods.
type Version struct {
	*semver.Version
}

// NewVersion creates a new Version from a string. A leading "v" is accepted
// and stripped during normalization.
func NewVersion(s string) (*Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(s, "v"))
	if err != nil {
		return nil, err
	}
	return &Version{v}, nil
}

// String returns the normalized version string without a "v" prefix.
func (v *Version) String() string {
	return v.Version.String()
}

// TagName returns the conventional tag name for the version.
func (v *Version) TagName() string {
	return "v" + v.Version.String()
}

// Compare compares two versions under plain semver ordering.
func (v *Version) Compare(other *Version) int {
	return v.Version.Compare(other.Version)
}

// preReleaseNumericRun matches a leading digit run of a pre-release
// suffix. Alphabetic runs are compared as-is; padding them would push
// shorter names above longer ones.
var preReleaseNumericRun = regexp.MustCompile(`^[0-9]+`)

// orderingKey is the string used to order versions that share the same
// release core but differ in pre-release suffix. A leading digit run is
// zero-padded to six characters so that "10" ranks above "2" despite the
// shorter digit count.
func orderingKey(v *semver.Version) string {
	pre := v.Prerelease()
	if pre == "" {
		return ""
	}
	return preReleaseNumericRun.ReplaceAllStringFunc(pre, func(run string) string {
		if len(run) >= 6 {
			return run
		}
		return strings.Repeat("0", 6-len(run)) + run
	})
}

// CompareReleaseOrder orders versions for latest-tag selection. Major, minor
// and patch compare numerically; pre-release suffixes compare by their
// zero-padded ordering key, with the absence of a suffix ranking highest.
func CompareReleaseOrder(a, b *Version) int {
	switch {
	case a.Major() != b.Major():
		return intCompare(a.Major(), b.Major())
	case a.Minor() != b.Minor():
		return intCompare(a.Minor(), b.Minor())
	case a.Patch() != b.Patch():
		return intCompare(a.Patch(), b.Patch())
	}
	ka, kb := orderingKey(a.Version), orderingKey(b.Version)
	switch {
	case ka == kb:
		return 0
	case ka == "":
		return 1
	case kb == "":
		return -1
	}
	return strings.Compare(ka, kb)
}

func intCompare(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
