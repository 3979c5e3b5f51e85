package models

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/util"
	"github.com/APTrust/ingest/util/fileutil"
	"github.com/dustin/go-humanize"
	"github.com/op/go-logging"
	"os"
	"path/filepath"
	"time"
)

type WorkerConfig struct {
	// This describes how often the NSQ client should ping
	// the NSQ server to let it know it's still there. The
	// setting must be formatted like so:
	//
	// "800ms" for 800 milliseconds
	// "10s" for ten seconds
	// "1m" for one minute
	HeartbeatInterval string

	// The maximum number of times NSQ should deliver a commit
	// message. Commits are never retried after they start, so
	// this only matters for messages that were never picked up.
	MaxAttempts uint16

	// Maximum number of jobs a worker will accept from the
	// queue at one time.
	MaxInFlight int

	// If the NSQ server does not hear from a client that a
	// job is complete in this amount of time, the server
	// considers the job to have timed out and re-queues it.
	// Commits of large sessions need something like "180m".
	MessageTimeout string

	// The name of the NSQ Channel the worker should read from.
	NsqChannel string

	// The name of the NSQ Topic the worker should listen to.
	NsqTopic string

	// This describes how long the NSQ client will wait for
	// a read from the NSQ server before timing out. The format
	// is the same as for HeartbeatInterval.
	ReadTimeout string

	// Number of go routines running commit pipelines. Each
	// pipeline handles one session at a time.
	Workers int

	// This describes how long the NSQ client will wait for
	// a write to the NSQ server to complete before timing out.
	// The format is the same as for HeartbeatInterval.
	WriteTimeout string
}

// IngestConfig describes the transfer backend and how staged files
// are fingerprinted.
type IngestConfig struct {
	// TransferBackend is one of constants.TransferBackends.
	TransferBackend string

	// TransferSize is the number of leading bytes of each file
	// that go into its manifest digest. This is a human-readable
	// size like "4 MiB" or "512kB".
	TransferSize string

	// HashType is one of constants.ChecksumAlgorithms.
	HashType string

	// SessionPath is the root directory under which each session's
	// staging area is created.
	SessionPath string

	// SSHAuthKeysDir is where the ssh backend writes one authorized
	// keys file per upload account.
	SSHAuthKeysDir string

	// SFTPGroup is the group the ssh backend assigns to upload
	// accounts. sshd should chroot this group to its home dir.
	SFTPGroup string
}

type UniqueIdConfig struct {
	// URL is the base URL of the unique id service.
	URL string
}

// ArchiveConfig describes where placed files go.
type ArchiveConfig struct {
	// Mode is one of constants.ArchiveModes.
	Mode string

	// UseId2Filename sets whether file ids are mapped to nested
	// hex paths. If false, the decimal id is used as the name.
	UseId2Filename bool

	// Prefix is the archive root directory for embedded mode.
	Prefix string

	// URL is the base URL of the archive interface in http mode.
	URL string

	// S3Region and S3Bucket are for s3 mode.
	S3Region string
	S3Bucket string

	// MinioEndpoint is host:port, without protocol, for minio mode.
	// The bucket is S3Bucket.
	MinioEndpoint string
	MinioUseSSL   bool

	// GCSBucket is the bucket name for gcs mode.
	GCSBucket string
}

// MetadataConfig describes the catalog that receives session metadata.
type MetadataConfig struct {
	// Type is one of constants.MetadataTypes.
	Type string

	// DrupalURL is the JSON:API root, e.g. http://host/jsonapi
	DrupalURL string

	// DrupalContentType is the node bundle session nodes are created
	// as, e.g. "data_upload".
	DrupalContentType string

	// DrupalContentAuthor is the display name of the Drupal user who
	// will own created nodes.
	DrupalContentAuthor string

	// DrupalHeaders are added to every catalog request.
	DrupalHeaders map[string]string
}

type Config struct {
	// ActiveConfig is the configuration currently
	// in use.
	ActiveConfig string

	// Settings for the commit workers.
	CommitWorker WorkerConfig

	// DatabasePath is the SQLite file holding sessions.
	DatabasePath string

	// HTTPTimeout bounds every request to the id service, archive
	// and catalog. Format is the same as WorkerConfig.HeartbeatInterval.
	HTTPTimeout string

	// Transfer backend settings.
	Ingest IngestConfig

	// Archive placement settings.
	ArchiveInterface ArchiveConfig

	// JournalPath is the BoltDB file in which the commit runner
	// records in-flight work items.
	JournalPath string

	// LogDirectory is where we'll write our log files.
	LogDirectory string

	// LogLevel is defined in github.com/op/go-logging
	// and should be one of the following:
	// 1 - CRITICAL
	// 2 - ERROR
	// 3 - WARNING
	// 4 - NOTICE
	// 5 - INFO
	// 6 - DEBUG
	LogLevel logging.Level

	// If true, processes will log to STDERR in addition
	// to their standard log files. You really only want
	// to do this in development.
	LogToStderr bool

	// Catalog settings.
	Metadata MetadataConfig

	NsqdHttpAddress string

	NsqLookupd string

	// Unique id service settings.
	UniqueId UniqueIdConfig

	// UseNSQ sends commits through NSQ to ingest_worker instead
	// of running them in the process that accepted the commit.
	UseNSQ bool
}

func LoadConfigFile(pathToConfigFile string) (*Config, error) {
	file, err := fileutil.LoadRelativeFile(pathToConfigFile)
	if err != nil {
		detailedError := fmt.Errorf("Error reading config file '%s': %v\n",
			pathToConfigFile, err)
		return nil, detailedError
	}
	config := &Config{}
	err = json.Unmarshal(file, config)
	if err != nil {
		detailedError := fmt.Errorf("Error parsing JSON from config file '%s': %v",
			pathToConfigFile, err)
		return nil, detailedError
	}
	config.ActiveConfig = pathToConfigFile
	config.setDefaults()
	return config, nil
}

func (config *Config) setDefaults() {
	if config.Ingest.TransferBackend == "" {
		config.Ingest.TransferBackend = constants.BackendSSH
	}
	if config.Ingest.TransferSize == "" {
		config.Ingest.TransferSize = constants.DefaultTransferSize
	}
	if config.Ingest.HashType == "" {
		config.Ingest.HashType = constants.AlgSha256
	}
	if config.Ingest.SessionPath == "" {
		config.Ingest.SessionPath = "/tmp/session"
	}
	if config.Ingest.SSHAuthKeysDir == "" {
		config.Ingest.SSHAuthKeysDir = "/etc/ssh/keys"
	}
	if config.Ingest.SFTPGroup == "" {
		config.Ingest.SFTPGroup = "sftponly"
	}
	if config.ArchiveInterface.Mode == "" {
		config.ArchiveInterface.Mode = constants.ArchiveEmbedded
	}
	if config.Metadata.Type == "" {
		config.Metadata.Type = constants.MetadataNone
	}
	if config.HTTPTimeout == "" {
		config.HTTPTimeout = "60s"
	}
	if config.CommitWorker.Workers < 1 {
		config.CommitWorker.Workers = 1
	}
}

// Validate returns an error describing the first setting that
// cannot work.
func (config *Config) Validate() error {
	if !util.StringListContains(constants.TransferBackends, config.Ingest.TransferBackend) {
		return fmt.Errorf("Unknown Ingest.TransferBackend '%s'", config.Ingest.TransferBackend)
	}
	if !util.StringListContains(constants.ChecksumAlgorithms, config.Ingest.HashType) {
		return fmt.Errorf("Unsupported Ingest.HashType '%s'", config.Ingest.HashType)
	}
	if _, err := config.TransferSizeBytes(); err != nil {
		return err
	}
	if _, err := config.HTTPTimeoutDuration(); err != nil {
		return err
	}
	if !util.StringListContains(constants.ArchiveModes, config.ArchiveInterface.Mode) {
		return fmt.Errorf("Unknown ArchiveInterface.Mode '%s'", config.ArchiveInterface.Mode)
	}
	if !util.StringListContains(constants.MetadataTypes, config.Metadata.Type) {
		return fmt.Errorf("Unknown Metadata.Type '%s'", config.Metadata.Type)
	}
	if config.DatabasePath == "" {
		return fmt.Errorf("You must define config.DatabasePath")
	}
	if config.UniqueId.URL == "" {
		return fmt.Errorf("You must define config.UniqueId.URL")
	}
	return nil
}

// TransferSizeBytes parses Ingest.TransferSize.
func (config *Config) TransferSizeBytes() (int64, error) {
	size, err := humanize.ParseBytes(config.Ingest.TransferSize)
	if err != nil {
		return 0, fmt.Errorf("Cannot parse Ingest.TransferSize '%s': %v",
			config.Ingest.TransferSize, err)
	}
	return int64(size), nil
}

// HTTPTimeoutDuration parses HTTPTimeout.
func (config *Config) HTTPTimeoutDuration() (time.Duration, error) {
	timeout, err := time.ParseDuration(config.HTTPTimeout)
	if err != nil {
		return 0, fmt.Errorf("Cannot parse HTTPTimeout '%s': %v", config.HTTPTimeout, err)
	}
	return timeout, nil
}

func (config *Config) EnsureLogDirectory() (string, error) {
	config.ExpandFilePaths()
	err := config.createDirectories()
	if err != nil {
		return "", err
	}
	return config.AbsLogDirectory(), nil
}

func (config *Config) AbsLogDirectory() string {
	absLogDir, err := filepath.Abs(config.LogDirectory)
	if err != nil {
		msg := fmt.Sprintf("Cannot get absolute path to log directory. "+
			"config.LogDirectory is set to '%s'", config.LogDirectory)
		panic(msg)
	}
	return absLogDir
}

func (config *Config) EnsureDrupalConfig() error {
	if config.Metadata.DrupalURL == "" {
		return fmt.Errorf("Metadata.DrupalURL is missing from config file")
	}
	if config.Metadata.DrupalContentType == "" {
		return fmt.Errorf("Metadata.DrupalContentType is missing from config file")
	}
	if config.Metadata.DrupalContentAuthor == "" {
		return fmt.Errorf("Metadata.DrupalContentAuthor is missing from config file")
	}
	return nil
}

func (config *Config) ExpandFilePaths() {
	expanded, err := fileutil.ExpandTilde(config.LogDirectory)
	if err == nil {
		config.LogDirectory = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.DatabasePath)
	if err == nil {
		config.DatabasePath = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.JournalPath)
	if err == nil {
		config.JournalPath = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.Ingest.SessionPath)
	if err == nil {
		config.Ingest.SessionPath = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.Ingest.SSHAuthKeysDir)
	if err == nil {
		config.Ingest.SSHAuthKeysDir = expanded
	}
	expanded, err = fileutil.ExpandTilde(config.ArchiveInterface.Prefix)
	if err == nil {
		config.ArchiveInterface.Prefix = expanded
	}
}

func (config *Config) createDirectories() error {
	if config.LogDirectory == "" {
		return fmt.Errorf("You must define config.LogDirectory")
	}
	dirs := []string{config.LogDirectory, config.Ingest.SessionPath}
	if config.ArchiveInterface.Mode == constants.ArchiveEmbedded {
		dirs = append(dirs, config.ArchiveInterface.Prefix)
	}
	if config.DatabasePath != "" {
		dirs = append(dirs, filepath.Dir(config.DatabasePath))
	}
	if config.JournalPath != "" {
		dirs = append(dirs, filepath.Dir(config.JournalPath))
	}
	for _, dir := range dirs {
		if dir == "" || fileutil.FileExists(dir) {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (config *Config) GetAWSAccessKeyId() string {
	return os.Getenv("AWS_ACCESS_KEY_ID")
}

func (config *Config) GetAWSSecretAccessKey() string {
	return os.Getenv("AWS_SECRET_ACCESS_KEY")
}

func (config *Config) GetMinioAccessKeyId() string {
	return os.Getenv("MINIO_ACCESS_KEY_ID")
}

func (config *Config) GetMinioSecretAccessKey() string {
	return os.Getenv("MINIO_SECRET_ACCESS_KEY")
}

// DrupalAPIUser and DrupalAPIKey are used for basic auth against the
// catalog when both are set.
func (config *Config) DrupalAPIUser() string {
	return os.Getenv("DRUPAL_API_USER")
}

func (config *Config) DrupalAPIKey() string {
	return os.Getenv("DRUPAL_API_KEY")
}
