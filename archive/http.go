package archive

import (
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/network"
)

// HTTPArchive PUTs files to a remote archive interface.
type HTTPArchive struct {
	client *network.ArchiveClient
}

func NewHTTPArchive(config *models.Config) (Archive, error) {
	if config.ArchiveInterface.URL == "" {
		return nil, fmt.Errorf("ArchiveInterface.URL is required for http archive mode")
	}
	timeout, err := config.HTTPTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return &HTTPArchive{client: network.NewArchiveClient(config.ArchiveInterface.URL, timeout)}, nil
}

func (archive *HTTPArchive) Place(fileId int64, localPath string) error {
	return archive.client.PutFile(fileId, localPath)
}
