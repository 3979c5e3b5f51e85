package archive

import (
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/fileutil"
	"path/filepath"
)

// EmbeddedArchive moves files into a directory tree on a filesystem
// this process can write to.
type EmbeddedArchive struct {
	config *models.Config
	prefix string
}

func NewEmbeddedArchive(config *models.Config) (Archive, error) {
	prefix := config.ArchiveInterface.Prefix
	if prefix == "" {
		return nil, fmt.Errorf("ArchiveInterface.Prefix is required for embedded archive mode")
	}
	prefix, err := fileutil.ExpandTilde(prefix)
	if err != nil {
		return nil, err
	}
	return &EmbeddedArchive{config: config, prefix: prefix}, nil
}

// Place moves localPath to <prefix>/<object name>. The staged copy
// is gone afterward.
func (archive *EmbeddedArchive) Place(fileId int64, localPath string) error {
	dest := archive.PathFor(fileId)
	if err := fileutil.MoveFile(localPath, dest); err != nil {
		return fmt.Errorf("Cannot move %s to %s: %v", localPath, dest, err)
	}
	return nil
}

// PathFor returns the absolute path at which fileId is stored.
func (archive *EmbeddedArchive) PathFor(fileId int64) string {
	return filepath.Join(archive.prefix, filepath.FromSlash(ObjectName(archive.config, fileId)))
}
