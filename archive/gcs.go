package archive

import (
	"context"
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/platform"
	"io"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSArchive uploads files to a Google Cloud Storage bucket using
// application default credentials.
type GCSArchive struct {
	config  *models.Config
	bucket  *storage.BucketHandle
	timeout time.Duration
}

func NewGCSArchive(config *models.Config) (Archive, error) {
	if config.ArchiveInterface.GCSBucket == "" {
		return nil, fmt.Errorf("ArchiveInterface.GCSBucket is required for gcs archive mode")
	}
	timeout, err := config.HTTPTimeoutDuration()
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("Cannot create GCS client: %v", err)
	}
	return &GCSArchive{
		config:  config,
		bucket:  client.Bucket(config.ArchiveInterface.GCSBucket),
		timeout: timeout,
	}, nil
}

func (archive *GCSArchive) Place(fileId int64, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()
	mimeType, err := platform.GuessMimeType(localPath)
	if err != nil {
		mimeType = platform.DefaultMimeType
	}

	ctx, cancel := context.WithTimeout(context.Background(), archive.timeout)
	defer cancel()
	objectName := ObjectName(archive.config, fileId)
	writer := archive.bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = mimeType
	writer.Metadata = map[string]string{"fileid": strconv.FormatInt(fileId, 10)}
	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return gcsError(objectName, err)
	}
	if err := writer.Close(); err != nil {
		return gcsError(objectName, err)
	}
	return nil
}

func gcsError(objectName string, err error) error {
	if gerr, ok := err.(*googleapi.Error); ok {
		return fmt.Errorf("GCS rejected %s with status %d: %s", objectName, gerr.Code, gerr.Message)
	}
	return fmt.Errorf("GCS upload of %s failed: %v", objectName, err)
}
