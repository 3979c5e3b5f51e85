package workers

import (
	"github.com/APTrust/ingest/context"
	"github.com/APTrust/ingest/filexfer"
	"github.com/APTrust/ingest/metaxfer"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/storage"
	"github.com/dustin/go-humanize"
	"github.com/op/go-logging"
)

// Progress reported once every file is placed but before the
// catalog has accepted the metadata.
const publishingProgress = 99.0

// CommitPipeline moves a processing session's upload into the
// archive, publishes its metadata and tears down its staging area.
// Steps run one after another on the calling goroutine.
type CommitPipeline struct {
	Store     *storage.SessionStore
	Progress  filexfer.ProgressRecorder
	Backend   filexfer.Backend
	Publisher metaxfer.Publisher
	Log       *logging.Logger
}

func NewCommitPipeline(_context *context.Context) *CommitPipeline {
	return &CommitPipeline{
		Store:     _context.SessionStore,
		Progress:  _context.Progress,
		Backend:   _context.Backend,
		Publisher: _context.Publisher,
		Log:       _context.MessageLog,
	}
}

type commitAttempt struct {
	session       *models.Session
	manifest      models.Manifest
	deprovisioned bool
}

// Run commits the session and marks it succeeded. It does not record
// failures. The caller hands any error to a FailureHandler. If Run
// fails before deprovisioning, it deprovisions on the way out and
// ignores any error from doing so. Panics come back as errors.
func (pipeline *CommitPipeline) Run(sessionId string) (manifest models.Manifest, err error) {
	session, err := pipeline.Store.GetById(sessionId)
	if err != nil {
		return nil, err
	}
	if !session.Processing {
		return nil, models.ConcurrencyGuardRejection.New("session %s is not processing", sessionId)
	}
	attempt := &commitAttempt{session: session, manifest: make(models.Manifest, 0)}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = PanicError(recovered)
		}
		if err != nil && !attempt.deprovisioned {
			pipeline.tryDeprovision(session)
		}
		manifest = attempt.manifest
	}()
	err = pipeline.run(attempt)
	return attempt.manifest, err
}

func (pipeline *CommitPipeline) run(attempt *commitAttempt) error {
	session := attempt.session
	pipeline.Log.Info("Committing session %s (%s) for %s, task %s",
		session.Id, session.Name, session.Owner, session.TaskReference)

	manifest, err := pipeline.Backend.CollectAndPlace(session)
	attempt.manifest = manifest
	if err != nil {
		return models.TransferFailure.Wrap(err)
	}
	pipeline.Log.Info("Session %s: %d files (%s) in archive", session.Id,
		len(manifest), humanize.Bytes(uint64(manifest.TotalSize())))

	if err = pipeline.setProgress(session, publishingProgress); err != nil {
		return err
	}
	ids, err := pipeline.Publisher.Publish(session, manifest)
	if err != nil {
		if !models.PublishFailure.Has(err) {
			err = models.PublishFailure.Wrap(err)
		}
		return err
	}
	pipeline.Log.Info("Session %s: catalog records %v", session.Id, ids)
	if err = pipeline.setProgress(session, 100); err != nil {
		return err
	}

	attempt.deprovisioned = true
	if err = pipeline.Backend.Deprovision(session); err != nil {
		return models.ProvisioningFailure.Wrap(err)
	}
	marked, err := pipeline.Store.MarkSucceeded(session.Id)
	if err != nil {
		return err
	}
	if !marked {
		return models.ConcurrencyGuardRejection.New("session %s stopped processing during commit", session.Id)
	}
	pipeline.Log.Info("Session %s committed", session.Id)
	return nil
}

// Abandon cleans up after a commit that will never finish, such as
// one interrupted by a crash.
func (pipeline *CommitPipeline) Abandon(sessionId string) {
	session, err := pipeline.Store.GetById(sessionId)
	if err != nil {
		pipeline.Log.Warning("Cannot load abandoned session %s: %v", sessionId, err)
		return
	}
	pipeline.tryDeprovision(session)
}

func (pipeline *CommitPipeline) tryDeprovision(session *models.Session) {
	if err := pipeline.Backend.Deprovision(session); err != nil {
		pipeline.Log.Warning("Deprovisioning failed session %s also failed: %v", session.Id, err)
	}
}

func (pipeline *CommitPipeline) setProgress(session *models.Session, progress float64) error {
	session.Progress = progress
	if pipeline.Progress == nil {
		return pipeline.Store.SetProgress(session.Id, progress)
	}
	return pipeline.Progress.SetProgress(session.Id, progress)
}
