// Package archive places collected files into permanent storage
// under the ids the unique id service hands out.
package archive

import (
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"strconv"
)

// Archive stores one file under fileId. Placing the same id twice
// overwrites the earlier copy.
type Archive interface {
	Place(fileId int64, localPath string) error
}

// NewArchive builds an Archive from config.
type NewArchive func(config *models.Config) (Archive, error)

// Modes maps ArchiveInterface.Mode values to constructors.
var Modes = map[string]NewArchive{
	constants.ArchiveEmbedded: NewEmbeddedArchive,
	constants.ArchiveHTTP:     NewHTTPArchive,
	constants.ArchiveS3:       NewS3Archive,
	constants.ArchiveMinio:    NewMinioArchive,
	constants.ArchiveGCS:      NewGCSArchive,
}

// New returns the Archive for config.ArchiveInterface.Mode.
func New(config *models.Config) (Archive, error) {
	newArchive, ok := Modes[config.ArchiveInterface.Mode]
	if !ok {
		return nil, fmt.Errorf("Unknown archive mode '%s'", config.ArchiveInterface.Mode)
	}
	return newArchive(config)
}

// Id2Filename maps a file id to a relative path that spreads files
// across nested directories. The id is written in hex and split into
// two-digit directories starting from the least significant end. The
// remaining high digits name the file. For example, 0x4d2 (1234)
// becomes "d2/file.4" and 0x1f becomes "file.1f".
func Id2Filename(fileId int64) string {
	hexId := strconv.FormatUint(uint64(fileId), 16)
	directories := ""
	for len(hexId) > 2 {
		directories = fmt.Sprintf("%s%s/", directories, hexId[len(hexId)-2:])
		hexId = hexId[:len(hexId)-2]
	}
	return fmt.Sprintf("%sfile.%s", directories, hexId)
}

// ObjectName returns the name fileId is stored under, which is either
// Id2Filename(fileId) or the decimal id.
func ObjectName(config *models.Config, fileId int64) string {
	if config.ArchiveInterface.UseId2Filename {
		return Id2Filename(fileId)
	}
	return strconv.FormatInt(fileId, 10)
}
