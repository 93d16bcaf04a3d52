package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/gepetto/internal/models"
)

// AttachmentFromPath builds a file reference for a local regular file.
// The file is only stat'ed, never read.
func AttachmentFromPath(path string) (models.Attachment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return models.Attachment{}, fmt.Errorf("attach file: empty path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("attach file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return models.Attachment{}, fmt.Errorf("attach file: %s is not a regular file", path)
	}

	return models.Attachment{
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
	}, nil
}
