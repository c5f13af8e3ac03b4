package updater

import (
	"fmt"
	"strings"

	"github.com/morgante/release-please/internal/domain"
)

const changelogHeader = "# Changelog"

// Changelog prepends a release entry to the changelog, keeping the file
// header on top.
type Changelog struct {
	Version *domain.Version
	Entry   string
}

// Transform inserts the entry after the header, or starts a fresh changelog
// when the file is absent.
func (u *Changelog) Transform(current *string) *string {
	entry := strings.TrimSpace(u.Entry)
	if entry == "" {
		entry = fmt.Sprintf("## %s", u.Version.TagName())
	}
	if current == nil {
		content := fmt.Sprintf("%s\n\n%s\n", changelogHeader, entry)
		return &content
	}
	text := *current
	if idx := strings.Index(text, changelogHeader); idx >= 0 {
		insertAt := idx + len(changelogHeader)
		content := text[:insertAt] + "\n\n" + entry + text[insertAt:]
		return &content
	}
	content := entry + "\n\n" + text
	return &content
}

// ContentUpdate builds the update for the given path. The changelog is
// created when absent.
func (u *Changelog) ContentUpdate(path string) domain.ContentUpdate {
	return domain.ContentUpdate{
		Path:            path,
		CreateIfMissing: true,
		Transform:       u.Transform,
	}
}
