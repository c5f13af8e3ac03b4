package updater

import (
	"encoding/json"
	"strings"

	"github.com/morgante/release-please/internal/domain"
)

// PackageJSON bumps the version field of an NPM package manifest.
type PackageJSON struct {
	Version *domain.Version
}

// Transform rewrites the manifest's version field. A missing or unparsable
// manifest yields nil so the path is omitted from the change set.
func (u *PackageJSON) Transform(current *string) *string {
	if current == nil {
		return nil
	}
	var manifest map[string]any
	if err := json.Unmarshal([]byte(*current), &manifest); err != nil {
		return nil
	}
	manifest["version"] = u.Version.String()
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil
	}
	content := string(data)
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return &content
}

// ContentUpdate builds the update for the given path. Manifests are never
// created, only updated.
func (u *PackageJSON) ContentUpdate(path string) domain.ContentUpdate {
	return domain.ContentUpdate{
		Path:      path,
		Transform: u.Transform,
	}
}
