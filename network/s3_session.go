package network

import (
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// S3Credentials returns static credentials for the key pair, or an
// error naming what is missing.
func S3Credentials(accessKeyId, secretAccessKey string) (*credentials.Credentials, error) {
	if accessKeyId == "" || secretAccessKey == "" {
		return nil, fmt.Errorf("AWS_ACCESS_KEY_ID and/or " +
			"AWS_SECRET_ACCESS_KEY not set in environment")
	}
	return credentials.NewStaticCredentials(accessKeyId, secretAccessKey, ""), nil
}

// GetS3Session returns a session for awsRegion that signs requests
// with creds.
func GetS3Session(awsRegion string, creds *credentials.Credentials) (*session.Session, error) {
	_session, err := session.NewSession(&aws.Config{
		Region:      aws.String(awsRegion),
		Credentials: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("Cannot create AWS session for %s: %v", awsRegion, err)
	}
	return _session, nil
}
