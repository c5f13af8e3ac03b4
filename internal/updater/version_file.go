// Package updater provides the built-in content updates staged into a
// release commit. Each updater exposes a Transform compatible with
// domain.ContentUpdate.
package updater

import (
	"github.com/morgante/release-please/internal/domain"
)

// VersionFile replaces a plain version file with the release version.
type VersionFile struct {
	Version *domain.Version
}

// Transform returns the new file contents regardless of the current ones.
func (u *VersionFile) Transform(_ *string) *string {
	content := u.Version.String() + "\n"
	return &content
}

// ContentUpdate builds the update for the given path. Version files are
// created when absent.
func (u *VersionFile) ContentUpdate(path string) domain.ContentUpdate {
	return domain.ContentUpdate{
		Path:            path,
		CreateIfMissing: true,
		Transform:       u.Transform,
	}
}
