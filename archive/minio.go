package archive

import (
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/platform"
	"github.com/minio/minio-go"
	"strconv"
)

// MinioArchive uploads files to an S3-compatible object store.
type MinioArchive struct {
	config *models.Config
	client *minio.Client
}

func NewMinioArchive(config *models.Config) (Archive, error) {
	settings := config.ArchiveInterface
	if settings.MinioEndpoint == "" || settings.S3Bucket == "" {
		return nil, fmt.Errorf("ArchiveInterface.MinioEndpoint and S3Bucket are required for minio archive mode")
	}
	// Endpoint is host:port, without protocol.
	client, err := minio.New(settings.MinioEndpoint,
		config.GetMinioAccessKeyId(),
		config.GetMinioSecretAccessKey(),
		settings.MinioUseSSL)
	if err != nil {
		return nil, fmt.Errorf("Cannot create minio client for %s: %v", settings.MinioEndpoint, err)
	}
	return &MinioArchive{config: config, client: client}, nil
}

func (archive *MinioArchive) Place(fileId int64, localPath string) error {
	mimeType, err := platform.GuessMimeType(localPath)
	if err != nil {
		mimeType = platform.DefaultMimeType
	}
	options := minio.PutObjectOptions{
		ContentType:  mimeType,
		UserMetadata: map[string]string{"fileid": strconv.FormatInt(fileId, 10)},
	}
	_, err = archive.client.FPutObject(archive.config.ArchiveInterface.S3Bucket,
		ObjectName(archive.config, fileId), localPath, options)
	if err != nil {
		return fmt.Errorf("Minio upload of file %d failed: %v", fileId, err)
	}
	return nil
}
