package service

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/ingest/context"
	"github.com/APTrust/ingest/filexfer"
	"github.com/APTrust/ingest/metaxfer"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/storage"
	"github.com/APTrust/ingest/workers"
	"github.com/op/go-logging"
	"github.com/satori/go.uuid"
	"golang.org/x/sync/singleflight"
)

// CommitDispatcher schedules the commit pipeline for a session that
// has just been moved to processing. workers.CommitRunner runs it in
// this process; workers.NSQDispatcher sends it to ingest_worker.
type CommitDispatcher interface {
	Dispatch(sessionId, taskReference string) error
}

// SessionService is what an API layer calls to manage ingest sessions
// on behalf of an authenticated owner. Every method checks that owner
// owns the session.
type SessionService struct {
	Store          *storage.SessionStore
	Backend        filexfer.Backend
	Dispatcher     CommitDispatcher
	FailureHandler *workers.FailureHandler
	Log            *logging.Logger

	deletes singleflight.Group
}

func NewSessionService(_context *context.Context, dispatcher CommitDispatcher) *SessionService {
	return &SessionService{
		Store:          _context.SessionStore,
		Backend:        _context.Backend,
		Dispatcher:     dispatcher,
		FailureHandler: workers.NewFailureHandler(_context.SessionStore, _context.MessageLog),
		Log:            _context.MessageLog,
	}
}

// Create makes a session, stores it and provisions its staging area.
//
// If provisioning fails, the session is kept, marked failed, and
// whatever was partly provisioned is torn down. Create then returns
// that session along with a ProvisioningFailure.
func (service *SessionService) Create(owner, name string, catalogDocument json.RawMessage) (*models.Session, error) {
	if err := metaxfer.CheckCatalogDocument(catalogDocument); err != nil {
		return nil, err
	}
	session := models.NewSession(owner, name)
	session.CatalogDocument = catalogDocument
	blob, err := service.Backend.GenerateCredentials(session)
	if err != nil {
		return nil, models.ProvisioningFailure.New("cannot generate credentials: %v", err)
	}
	session.CredentialBlob = blob
	if err = service.Store.Insert(session); err != nil {
		return nil, err
	}

	if err = service.Backend.Provision(session); err != nil {
		cause := models.ProvisioningFailure.New("cannot provision session %s: %v", session.Id, err)
		if handlerErr := service.FailureHandler.Handle(session.Id, cause); handlerErr != nil {
			return nil, handlerErr
		}
		if cleanupErr := service.Backend.Deprovision(session); cleanupErr != nil {
			service.Log.Warning("Cleanup after failed provisioning of %s failed: %v", session.Id, cleanupErr)
		}
		failed, getErr := service.Store.GetById(session.Id)
		if getErr != nil {
			return nil, cause
		}
		return failed, cause
	}
	service.Log.Info("Created session %s (%s) for %s", session.Id, session.Name, owner)
	return session, nil
}

func (service *SessionService) Get(id, owner string) (*models.Session, error) {
	return service.Store.Get(id, owner)
}

func (service *SessionService) List(owner string) ([]*models.Session, error) {
	return service.Store.List(owner)
}

// Update changes the session's name and catalog document. The
// document is frozen once a commit starts.
func (service *SessionService) Update(id, owner, name string, catalogDocument json.RawMessage) (*models.Session, error) {
	if err := metaxfer.CheckCatalogDocument(catalogDocument); err != nil {
		return nil, err
	}
	if err := service.Store.UpdateDetails(id, owner, name, catalogDocument); err != nil {
		return nil, err
	}
	return service.Store.Get(id, owner)
}

// Commit starts the commit pipeline and returns its task reference
// without waiting for it. Asking again while the commit is running
// returns the same reference. A finished session cannot be committed
// again.
func (service *SessionService) Commit(id, owner string) (string, error) {
	if _, err := service.Store.Get(id, owner); err != nil {
		return "", err
	}
	taskReference := uuid.NewV4().String()
	started, err := service.Store.StartCommit(id, owner, taskReference)
	if err != nil {
		return "", err
	}
	if !started {
		session, err := service.Store.Get(id, owner)
		if err != nil {
			return "", err
		}
		switch {
		case session.Processing:
			return session.TaskReference, nil
		case session.Complete:
			return "", models.ConcurrencyGuardRejection.New("session %s is already %s", id, session.State())
		default:
			return "", models.ConcurrencyGuardRejection.New("session %s is being deleted", id)
		}
	}

	if err = service.Dispatcher.Dispatch(id, taskReference); err != nil {
		cause := models.TransferFailure.New("cannot schedule commit %s: %v", taskReference, err)
		if handlerErr := service.FailureHandler.Handle(id, cause); handlerErr != nil {
			service.Log.Error("Session %s may be stuck processing: %v", id, handlerErr)
		}
		if session, getErr := service.Store.GetById(id); getErr == nil {
			if cleanupErr := service.Backend.Deprovision(session); cleanupErr != nil {
				service.Log.Warning("Cleanup of session %s failed: %v", id, cleanupErr)
			}
		}
		return "", cause
	}
	service.Log.Info("Session %s commit scheduled as %s", id, taskReference)
	return taskReference, nil
}

// Delete tears down the session's staging area and removes the
// session. Sessions cannot be deleted while a commit is running.
// Concurrent deletes of one session deprovision it once.
func (service *SessionService) Delete(id, owner string) error {
	_, err, _ := service.deletes.Do(fmt.Sprintf("%s/%s", owner, id), func() (interface{}, error) {
		return nil, service.delete(id, owner)
	})
	return err
}

func (service *SessionService) delete(id, owner string) error {
	session, err := service.Store.Get(id, owner)
	if err != nil {
		return err
	}
	if session.Processing {
		return models.ConcurrencyGuardRejection.New("session %s cannot be deleted while processing", id)
	}
	claimed, err := service.Store.ClaimDeletion(id, owner)
	if err != nil {
		return err
	}
	if !claimed {
		// Someone started a commit or a delete since we looked.
		if _, err := service.Store.Get(id, owner); err != nil {
			return err
		}
		return models.ConcurrencyGuardRejection.New("session %s is busy", id)
	}

	if err = service.Backend.Deprovision(session); err != nil {
		if releaseErr := service.Store.ReleaseDeletion(id); releaseErr != nil {
			service.Log.Error("Cannot release deletion claim on %s: %v", id, releaseErr)
		}
		return models.ProvisioningFailure.New("cannot deprovision session %s: %v", id, err)
	}
	if err = service.Store.Delete(id); err != nil {
		return err
	}
	service.Log.Info("Deleted session %s", id)
	return nil
}
