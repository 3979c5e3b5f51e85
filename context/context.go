package context

import (
	"fmt"
	"github.com/APTrust/ingest/archive"
	"github.com/APTrust/ingest/filexfer"
	"github.com/APTrust/ingest/metaxfer"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/network"
	"github.com/APTrust/ingest/util/logger"
	"github.com/APTrust/ingest/util/storage"
	"github.com/op/go-logging"
	stdlog "log"
	"sync/atomic"
)

/*
Context sets up the items common to the ingest service and the
commit workers: config, logs, the session store, and the backend,
archive and publisher chosen by the config. It also counts the
commits that succeeded and failed.

Backend, Archive and Publisher are resolved once, here. Nothing else
consults the config to decide which implementation to use.
*/
type Context struct {
	Config         *models.Config
	MessageLog     *logging.Logger
	JsonLog        *stdlog.Logger
	NSQClient      *network.NSQClient
	UniqueIdClient *network.UniqueIdClient
	SessionStore   *storage.SessionStore
	Progress       *filexfer.ProgressRelay
	Archive        archive.Archive
	Backend        filexfer.Backend
	Publisher      metaxfer.Publisher
	pathToLogFile  string
	pathToJsonLog  string
	succeeded      int64
	failed         int64
}

/*
Creates and returns a new Context object. It returns an error if
the config is invalid or if any of the services it describes cannot
be set up. The context is meant to be used as a singleton by the
ingest service and worker processes.
*/
func NewContext(config *models.Config) (*Context, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := config.EnsureLogDirectory(); err != nil {
		return nil, err
	}
	timeout, err := config.HTTPTimeoutDuration()
	if err != nil {
		return nil, err
	}
	_context := &Context{
		Config:    config,
		succeeded: int64(0),
		failed:    int64(0),
	}
	_context.MessageLog, _context.pathToLogFile = logger.InitLogger(config)
	_context.JsonLog, _context.pathToJsonLog = logger.InitJsonLogger(config)
	_context.NSQClient = network.NewNSQClient(config.NsqdHttpAddress)
	_context.UniqueIdClient = network.NewUniqueIdClient(config.UniqueId.URL, timeout)

	_context.SessionStore, err = storage.NewSessionStore(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("Cannot open session store %s: %v", config.DatabasePath, err)
	}
	_context.Progress = filexfer.NewProgressRelay(_context.SessionStore)
	_context.Archive, err = archive.New(config)
	if err != nil {
		_context.Close()
		return nil, err
	}
	_context.Backend, err = filexfer.New(&filexfer.Deps{
		Config:      config,
		IdAllocator: _context.UniqueIdClient,
		Archive:     _context.Archive,
		Progress:    _context.Progress,
		Log:         _context.MessageLog,
	})
	if err != nil {
		_context.Close()
		return nil, err
	}
	_context.Publisher, err = metaxfer.New(config, _context.MessageLog)
	if err != nil {
		_context.Close()
		return nil, err
	}
	_context.MessageLog.Info("Using %s transfer backend, %s archive, %s metadata",
		config.Ingest.TransferBackend, config.ArchiveInterface.Mode, config.Metadata.Type)
	return _context, nil
}

// Close releases the session store.
func (context *Context) Close() {
	if context.SessionStore != nil {
		context.SessionStore.Close()
	}
}

// Returns the number of work items that succeeded.
func (context *Context) Succeeded() int64 {
	return atomic.LoadInt64(&context.succeeded)
}

// Returns the number of work items that failed.
func (context *Context) Failed() int64 {
	return atomic.LoadInt64(&context.failed)
}

// Increases the count of successfully processed items by one.
func (context *Context) IncrementSucceeded() int64 {
	return atomic.AddInt64(&context.succeeded, 1)
}

// Increases the count of unsuccessfully processed items by one.
func (context *Context) IncrementFailed() int64 {
	return atomic.AddInt64(&context.failed, 1)
}

// Returns the path to this process' log file
func (context *Context) PathToLogFile() string {
	return context.pathToLogFile
}

// Returns the path to this process' JSON log file
func (context *Context) PathToJsonLog() string {
	return context.pathToJsonLog
}

// Logs info about the number of items that have succeeded and failed.
func (context *Context) LogStats() {
	context.MessageLog.Info("**STATS** Succeeded: %d, Failed: %d",
		context.Succeeded(), context.Failed())
}
