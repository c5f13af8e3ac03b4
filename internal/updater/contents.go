package updater

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/afero"

	"github.com/morgante/release-please/internal/domain"
)

// LoadContents reads a local file into the shape remote fetches produce, so
// an update can carry pre-loaded contents and skip the remote read.
func LoadContents(fs afero.Fs, path string) (*domain.FileContents, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &domain.FileContents{
		Content:       base64.StdEncoding.EncodeToString(data),
		ParsedContent: string(data),
	}, nil
}
