package archive

import (
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/network"
	"github.com/APTrust/ingest/platform"
	"os"
	"strconv"
)

// S3Archive uploads files to an AWS S3 bucket.
type S3Archive struct {
	config *models.Config
}

func NewS3Archive(config *models.Config) (Archive, error) {
	if config.ArchiveInterface.S3Bucket == "" || config.ArchiveInterface.S3Region == "" {
		return nil, fmt.Errorf("ArchiveInterface.S3Bucket and S3Region are required for s3 archive mode")
	}
	return &S3Archive{config: config}, nil
}

func (archive *S3Archive) Place(fileId int64, localPath string) error {
	mimeType, err := platform.GuessMimeType(localPath)
	if err != nil {
		mimeType = platform.DefaultMimeType
	}
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()
	upload := network.NewS3Upload(
		archive.config.ArchiveInterface.S3Region,
		archive.config.ArchiveInterface.S3Bucket,
		ObjectName(archive.config, fileId),
		mimeType)
	upload.AccessKeyId = archive.config.GetAWSAccessKeyId()
	upload.SecretAccessKey = archive.config.GetAWSSecretAccessKey()
	upload.AddMetadata("fileid", strconv.FormatInt(fileId, 10))
	upload.Send(file)
	if upload.ErrorMessage != "" {
		return fmt.Errorf("S3 upload of file %d failed: %s", fileId, upload.ErrorMessage)
	}
	return nil
}
