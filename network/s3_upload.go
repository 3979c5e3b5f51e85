package network

import (
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"io"
)

// Typical usage:
//
// upload := NewS3Upload(config.ArchiveInterface.S3Region,
//                       config.ArchiveInterface.S3Bucket,
//                       "d2/file.4", "application/octet-stream")
// upload.AccessKeyId = config.GetAWSAccessKeyId()
// upload.SecretAccessKey = config.GetAWSSecretAccessKey()
// upload.AddMetadata("fileid", "1234")
// reader, err := os.Open("/path/to/file.txt")
// if err != nil {
//    ... whatever ...
// }
// defer reader.Close()
// upload.Send(reader)
// if upload.ErrorMessage != "" {
//    ... do something ...
// }
//
type S3Upload struct {
	AWSRegion       string
	AccessKeyId     string
	SecretAccessKey string
	ErrorMessage    string
	UploadInput     *s3manager.UploadInput
	Response        *s3manager.UploadOutput
	session         *session.Session
}

// Creates a new S3 upload object. Params:
//
// region      - The name of the AWS region to upload to.
// bucket      - The name of the bucket to upload to.
// key         - The name of the object to create.
// contentType - A standard Content-Type header, like text/html.
func NewS3Upload(region, bucket, key, contentType string) *S3Upload {
	uploadInput := &s3manager.UploadInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}
	uploadInput.Metadata = make(map[string]*string)
	return &S3Upload{
		AWSRegion:   region,
		UploadInput: uploadInput,
	}
}

// Returns an S3 session for this upload.
func (client *S3Upload) GetSession() *session.Session {
	if client.session != nil {
		return client.session
	}
	var creds *credentials.Credentials
	var err error
	if creds, err = S3Credentials(client.AccessKeyId, client.SecretAccessKey); err == nil {
		client.session, err = GetS3Session(client.AWSRegion, creds)
	}
	if err != nil {
		client.ErrorMessage = err.Error()
	}
	return client.session
}

// Adds x-amz-meta-<key> metadata to the upload.
func (client *S3Upload) AddMetadata(key, value string) {
	client.UploadInput.Metadata[key] = &value
}

// Upload a file to S3. If ErrorMessage == "", the upload succeeded.
// Caller is responsible for closing the reader.
func (client *S3Upload) Send(reader io.Reader) {
	_session := client.GetSession()
	if _session == nil {
		return
	}
	client.UploadInput.Body = reader
	uploader := s3manager.NewUploader(_session)
	uploader.LeavePartsOnError = false // we have to pay for abandoned parts
	var err error
	client.Response, err = uploader.Upload(client.UploadInput)
	if err != nil {
		client.ErrorMessage = err.Error()
	}
}
