// Package filexfer holds the transfer backends that give a client
// somewhere to upload files, and that later collect those files,
// assign them archive ids and hand them to the archive.
package filexfer

import (
	"fmt"
	"github.com/APTrust/ingest/archive"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/logger"
	"github.com/op/go-logging"
)

// Backend is one way of receiving uploads.
//
// GenerateCredentials is pure: it returns the JSON credential blob for
// a new session and touches nothing outside the process. Provision
// creates whatever the blob describes, once. Deprovision undoes
// Provision and can be called any number of times. CollectAndPlace
// walks the staging area, places every file in the archive and
// returns the manifest. On error it returns the entries placed so far.
type Backend interface {
	GenerateCredentials(session *models.Session) (string, error)
	Provision(session *models.Session) error
	Deprovision(session *models.Session) error
	CollectAndPlace(session *models.Session) (models.Manifest, error)
}

// IdAllocator reserves ranges of archive ids. network.UniqueIdClient
// implements this.
type IdAllocator interface {
	GetUniqueId(idRange int, mode string) (int64, error)
}

// ProgressRecorder persists commit progress. storage.SessionStore
// implements this.
type ProgressRecorder interface {
	SetProgress(sessionId string, progress float64) error
}

// Deps are the collaborators every backend needs.
type Deps struct {
	Config      *models.Config
	IdAllocator IdAllocator
	Archive     archive.Archive
	Progress    ProgressRecorder
	Log         *logging.Logger
}

// NewBackend builds a Backend.
type NewBackend func(deps *Deps) (Backend, error)

// Backends maps Ingest.TransferBackend values to constructors.
var Backends = map[string]NewBackend{
	constants.BackendSSH:   NewSSHBackend,
	constants.BackendLocal: NewLocalBackend,
}

// New returns the backend named by deps.Config.Ingest.TransferBackend.
func New(deps *Deps) (Backend, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("Transfer backend requires a config")
	}
	newBackend, ok := Backends[deps.Config.Ingest.TransferBackend]
	if !ok {
		return nil, fmt.Errorf("Unknown transfer backend '%s'", deps.Config.Ingest.TransferBackend)
	}
	if deps.Log == nil {
		deps.Log = logger.DiscardLogger("filexfer")
	}
	return newBackend(deps)
}
