package models_test

import (
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"strings"
	"testing"
)

func loadTestConfig(t *testing.T) *models.Config {
	configFile := filepath.Join("config", "test.json")
	config, err := models.LoadConfigFile(configFile)
	require.Nil(t, err)
	return config
}

func TestLoad(t *testing.T) {
	config := loadTestConfig(t)

	// Spot check a few settings.
	assert.Equal(t, filepath.Join("config", "test.json"), config.ActiveConfig)
	assert.Equal(t, constants.BackendLocal, config.Ingest.TransferBackend)
	assert.Equal(t, constants.AlgSha256, config.Ingest.HashType)
	assert.Equal(t, constants.ArchiveEmbedded, config.ArchiveInterface.Mode)
	assert.True(t, config.ArchiveInterface.UseId2Filename)
	assert.Equal(t, "http://127.0.0.1:8051", config.UniqueId.URL)
	assert.Equal(t, "data_upload", config.Metadata.DrupalContentType)
	assert.Equal(t, "ingest-test", config.Metadata.DrupalHeaders["X-Ingest-Client"])
	assert.Equal(t, "10s", config.CommitWorker.HeartbeatInterval)
	assert.Equal(t, 2, config.CommitWorker.Workers)
	assert.Nil(t, config.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := models.LoadConfigFile(filepath.Join("config", "does_not_exist.json"))
	require.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Error reading config file"))
}

func TestTransferSizeBytes(t *testing.T) {
	config := loadTestConfig(t)
	size, err := config.TransferSizeBytes()
	require.Nil(t, err)
	assert.EqualValues(t, 4*1024*1024, size)

	config.Ingest.TransferSize = "512kB"
	size, err = config.TransferSizeBytes()
	require.Nil(t, err)
	assert.EqualValues(t, 512000, size)

	config.Ingest.TransferSize = "lots"
	_, err = config.TransferSizeBytes()
	assert.NotNil(t, err)
	assert.NotNil(t, config.Validate())
}

func TestHTTPTimeoutDuration(t *testing.T) {
	config := loadTestConfig(t)
	timeout, err := config.HTTPTimeoutDuration()
	require.Nil(t, err)
	assert.Equal(t, "30s", timeout.String())
}

func TestValidate(t *testing.T) {
	config := loadTestConfig(t)
	config.Ingest.TransferBackend = "ftp"
	assert.Equal(t, "Unknown Ingest.TransferBackend 'ftp'", config.Validate().Error())

	config = loadTestConfig(t)
	config.Ingest.HashType = "crc32"
	assert.Equal(t, "Unsupported Ingest.HashType 'crc32'", config.Validate().Error())

	config = loadTestConfig(t)
	config.ArchiveInterface.Mode = "tape"
	assert.Equal(t, "Unknown ArchiveInterface.Mode 'tape'", config.Validate().Error())

	config = loadTestConfig(t)
	config.Metadata.Type = "fedora"
	assert.Equal(t, "Unknown Metadata.Type 'fedora'", config.Validate().Error())

	config = loadTestConfig(t)
	config.DatabasePath = ""
	assert.Equal(t, "You must define config.DatabasePath", config.Validate().Error())
}

func TestEnsureDrupalConfig(t *testing.T) {
	config := loadTestConfig(t)
	assert.Nil(t, config.EnsureDrupalConfig())
	config.Metadata.DrupalContentAuthor = ""
	err := config.EnsureDrupalConfig()
	require.NotNil(t, err)
	assert.Equal(t, "Metadata.DrupalContentAuthor is missing from config file", err.Error())
}

func TestExpandFilePaths(t *testing.T) {
	config := loadTestConfig(t)
	config.ExpandFilePaths()
	assert.False(t, strings.Contains(config.LogDirectory, "~"))
	assert.False(t, strings.Contains(config.DatabasePath, "~"))
	assert.False(t, strings.Contains(config.JournalPath, "~"))
	assert.False(t, strings.Contains(config.Ingest.SessionPath, "~"))
	assert.False(t, strings.Contains(config.ArchiveInterface.Prefix, "~"))
}

func TestEnsureLogDirectory(t *testing.T) {
	config := loadTestConfig(t)
	absPathToLogDir, err := config.EnsureLogDirectory()
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(absPathToLogDir, "/"))
}

func TestDefaults(t *testing.T) {
	config := loadTestConfig(t)
	// Values the test file leaves out get the usual defaults.
	assert.Equal(t, "sftponly", config.Ingest.SFTPGroup)
	assert.False(t, config.UseNSQ)
}
