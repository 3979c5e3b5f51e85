package context_test

import (
	"github.com/APTrust/ingest/archive"
	"github.com/APTrust/ingest/context"
	"github.com/APTrust/ingest/filexfer"
	"github.com/APTrust/ingest/metaxfer"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path"
	"path/filepath"
	"testing"
)

func TestNewContext(t *testing.T) {
	configFile := filepath.Join("config", "test.json")
	appConfig, err := models.LoadConfigFile(configFile)
	require.Nil(t, err)

	// In some tests we want to log to STDERR, but in this case, if it
	// happens to be turned on, it just creates useless, annoying output.
	appConfig.LogToStderr = false

	_context, err := context.NewContext(appConfig)
	require.Nil(t, err)
	require.NotNil(t, _context)
	defer _context.Close()

	expectedPathToLogFile := filepath.Join(_context.Config.AbsLogDirectory(), path.Base(os.Args[0])+".log")
	expectedPathToJsonLog := filepath.Join(_context.Config.AbsLogDirectory(), path.Base(os.Args[0])+".json")

	assert.NotNil(t, _context.Config)
	assert.NotNil(t, _context.NSQClient)
	assert.NotNil(t, _context.UniqueIdClient)
	assert.NotNil(t, _context.SessionStore)
	assert.NotNil(t, _context.Progress)
	assert.NotNil(t, _context.MessageLog)
	assert.NotNil(t, _context.JsonLog)
	assert.IsType(t, &archive.EmbeddedArchive{}, _context.Archive)
	assert.IsType(t, &filexfer.LocalBackend{}, _context.Backend)
	assert.IsType(t, &metaxfer.DrupalPublisher{}, _context.Publisher)
	assert.Equal(t, expectedPathToLogFile, _context.PathToLogFile())
	assert.Equal(t, expectedPathToJsonLog, _context.PathToJsonLog())
	assert.Equal(t, int64(0), _context.Succeeded())
	assert.Equal(t, int64(0), _context.Failed())

	assert.NotPanics(t, func() { _context.MessageLog.Info("Test INFO log message") })
	assert.NotPanics(t, func() { _context.MessageLog.Debug("Test DEBUG log message") })
	assert.NotPanics(t, func() { _context.JsonLog.Println(`{"message": "Test JSON log message"}`) })

	// Cleanup, but only if context was successfully created
	if _context.PathToLogFile() != "" {
		os.Remove(_context.PathToLogFile())
	}
	if _context.PathToJsonLog() != "" {
		os.Remove(_context.PathToJsonLog())
	}
}

func TestNewContextBadConfig(t *testing.T) {
	root, cleanup, err := testutil.TestRoot("context_test")
	require.Nil(t, err)
	defer cleanup()

	config := testutil.NewTestConfig(root)
	_, err = context.NewContext(config)
	require.NotNil(t, err, "UniqueId.URL is required")

	config.UniqueId.URL = "http://localhost:8051"
	config.ArchiveInterface.Prefix = ""
	_, err = context.NewContext(config)
	assert.NotNil(t, err, "embedded archive needs a prefix")
}

func TestCounters(t *testing.T) {
	root, cleanup, err := testutil.TestRoot("context_test")
	require.Nil(t, err)
	defer cleanup()
	config := testutil.NewTestConfig(root)
	config.UniqueId.URL = "http://localhost:8051"

	_context, err := context.NewContext(config)
	require.Nil(t, err)
	defer _context.Close()
	assert.Equal(t, int64(1), _context.IncrementSucceeded())
	assert.Equal(t, int64(1), _context.IncrementFailed())
	assert.Equal(t, int64(2), _context.IncrementFailed())
	assert.Equal(t, int64(1), _context.Succeeded())
	assert.Equal(t, int64(2), _context.Failed())
	assert.NotPanics(t, func() { _context.LogStats() })
}
