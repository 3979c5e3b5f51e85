package workers

import (
	"encoding/json"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/context"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/storage"
	"github.com/nsqio/go-nsq"
	"os"
	"sync"
)

// CommitRunner runs commit pipelines on a fixed pool of goroutines.
// Work arrives through Dispatch, in-process, or through HandleMessage
// from NSQ. Every item is written to the journal before it is queued
// and removed after it finishes, so items a crashed runner never got
// to are still there for Recover.
type CommitRunner struct {
	Context        *context.Context
	Journal        *storage.BoltDB
	Pipeline       *CommitPipeline
	FailureHandler *FailureHandler
	CommitChannel  chan *models.CommitItem
	WaitGroup      sync.WaitGroup

	// Sessions queued or running in this process, mapped to task
	// reference.
	inFlight *models.SynchronizedMap

	// Items whose pipeline is running, by session id. Their NSQ
	// messages are touched each time the session makes progress.
	runningMutex sync.Mutex
	running      map[string]*models.CommitItem
}

func NewCommitRunner(_context *context.Context, journal *storage.BoltDB) *CommitRunner {
	runner := &CommitRunner{
		Context:        _context,
		Journal:        journal,
		Pipeline:       NewCommitPipeline(_context),
		FailureHandler: NewFailureHandler(_context.SessionStore, _context.MessageLog),
		inFlight:       models.NewSynchronizedMap(),
		running:        make(map[string]*models.CommitItem),
	}
	if _context.Progress != nil {
		_context.Progress.OnProgress(runner.touch)
	}
	// Set up buffered channels
	workerBufferSize := _context.Config.CommitWorker.Workers * 10
	runner.CommitChannel = make(chan *models.CommitItem, workerBufferSize)
	// Set up a limited number of go routines
	for i := 0; i < _context.Config.CommitWorker.Workers; i++ {
		go runner.commit()
	}
	return runner
}

// Dispatch schedules a commit of a session that has already been
// moved to processing under taskReference. It returns once the item
// is journaled.
func (runner *CommitRunner) Dispatch(sessionId, taskReference string) error {
	return runner.queue(models.NewCommitItem(sessionId, taskReference))
}

// This is the callback that NSQ workers use to handle messages from NSQ.
func (runner *CommitRunner) HandleMessage(message *nsq.Message) error {
	commitMessage := &models.CommitMessage{}
	if err := json.Unmarshal(message.Body, commitMessage); err != nil {
		runner.Context.MessageLog.Error("Discarding bad commit message '%s': %v",
			string(message.Body), err)
		message.Finish()
		return nil
	}
	session, err := runner.Context.SessionStore.GetById(commitMessage.SessionId)
	if storage.ErrSessionNotFound.Has(err) {
		runner.Context.MessageLog.Warning("Discarding commit of deleted session %s",
			commitMessage.SessionId)
		message.Finish()
		return nil
	}
	if err != nil {
		// Let NSQ requeue this.
		runner.Context.MessageLog.Error(err.Error())
		return err
	}

	// NSQ may deliver a message more than once. Only the commit the
	// session is currently processing should run.
	if !session.Processing || session.TaskReference != commitMessage.TaskReference {
		runner.Context.MessageLog.Info("Marking commit %s of session %s as finished "+
			"without doing any work, because the session is %s with task reference '%s'.",
			commitMessage.TaskReference, session.Id, session.State(), session.TaskReference)
		message.Finish()
		return nil
	}

	// Disable auto response, so we can tell NSQ when we need to
	// that we're still working on this item.
	message.DisableAutoResponse()
	item := models.NewCommitItem(commitMessage.SessionId, commitMessage.TaskReference)
	item.NSQMessage = message
	return runner.queue(item)
}

// Recover picks up the items a previous runner left in the journal.
// Items that were still queued are queued again. Items that were
// running were interrupted partway through, so their sessions are
// cleaned up and marked failed. Returns the number of items found.
func (runner *CommitRunner) Recover() (int, error) {
	items, err := runner.Journal.CommitItems()
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if item.State == constants.CommitRunning {
			runner.Context.MessageLog.Warning("Commit of session %s was interrupted on %s (pid %d)",
				item.SessionId, item.Node, item.Pid)
			runner.Pipeline.Abandon(item.SessionId)
			cause := models.TransferFailure.New("commit %s was interrupted while running on %s (pid %d)",
				item.TaskReference, item.Node, item.Pid)
			if err = runner.FailureHandler.Handle(item.SessionId, cause); err != nil {
				return len(items), err
			}
			if err = runner.Journal.DeleteCommitItem(item.SessionId); err != nil {
				return len(items), err
			}
			runner.Context.IncrementFailed()
			continue
		}
		runner.Context.MessageLog.Info("Requeueing commit of session %s from journal", item.SessionId)
		hostname, _ := os.Hostname()
		item.Node = hostname
		item.Pid = os.Getpid()
		if err = runner.queue(item); err != nil {
			return len(items), err
		}
	}
	return len(items), nil
}

// Wait blocks until every item queued so far has finished.
func (runner *CommitRunner) Wait() {
	runner.WaitGroup.Wait()
}

// InFlight returns the number of sessions queued or running.
func (runner *CommitRunner) InFlight() int {
	return runner.inFlight.Len()
}

func (runner *CommitRunner) queue(item *models.CommitItem) error {
	if !runner.inFlight.AddIfAbsent(item.SessionId, item.TaskReference) {
		runner.Context.MessageLog.Info("Session %s is already queued in this process "+
			"with task %s. Ignoring task %s.", item.SessionId,
			runner.inFlight.Get(item.SessionId), item.TaskReference)
		item.FinishNSQ()
		return nil
	}
	item.State = constants.CommitQueued
	if item.Summary == nil {
		item.Summary = models.NewWorkSummary()
	}
	if err := runner.Journal.SaveCommitItem(item); err != nil {
		runner.inFlight.Delete(item.SessionId)
		return err
	}
	runner.WaitGroup.Add(1)
	select {
	case runner.CommitChannel <- item:
	default:
		// All workers are busy and the buffer is full. Don't make
		// the caller wait for a slot.
		go func() { runner.CommitChannel <- item }()
	}
	return nil
}

func (runner *CommitRunner) commit() {
	for item := range runner.CommitChannel {
		runner.process(item)
	}
}

func (runner *CommitRunner) process(item *models.CommitItem) {
	defer runner.WaitGroup.Done()
	defer runner.inFlight.Delete(item.SessionId)
	defer func() {
		// Keep this worker alive if recording the outcome panics.
		if recovered := recover(); recovered != nil {
			runner.Context.MessageLog.Error("Commit worker recovered from panic on session %s: %v",
				item.SessionId, PanicError(recovered))
		}
	}()

	item.State = constants.CommitRunning
	item.Summary.Start()
	if err := runner.Journal.SaveCommitItem(item); err != nil {
		runner.Context.MessageLog.Warning("Cannot journal start of session %s: %v", item.SessionId, err)
	}
	item.TouchNSQ()

	runner.setRunning(item)
	_, err := runner.Pipeline.Run(item.SessionId)
	runner.clearRunning(item)
	if err != nil {
		item.Summary.AddError("%s", err.Error())
		if handlerErr := runner.FailureHandler.Handle(item.SessionId, err); handlerErr != nil {
			item.Summary.AddError("Cannot record failure: %v", handlerErr)
		}
		runner.Context.IncrementFailed()
	} else {
		runner.Context.IncrementSucceeded()
	}
	item.Summary.Finish()
	if item.Summary.Succeeded() {
		runner.Context.MessageLog.Info("Commit of session %s finished in %s",
			item.SessionId, item.Summary.RunTime())
	} else {
		runner.Context.MessageLog.Error("Commit of session %s failed after %s: %s",
			item.SessionId, item.Summary.RunTime(), item.Summary.FirstError())
	}
	runner.logJson(item)

	if err = runner.Journal.DeleteCommitItem(item.SessionId); err != nil {
		runner.Context.MessageLog.Warning("Cannot remove session %s from journal: %v", item.SessionId, err)
	}
	item.FinishNSQ()
}

func (runner *CommitRunner) setRunning(item *models.CommitItem) {
	runner.runningMutex.Lock()
	defer runner.runningMutex.Unlock()
	runner.running[item.SessionId] = item
}

func (runner *CommitRunner) clearRunning(item *models.CommitItem) {
	runner.runningMutex.Lock()
	defer runner.runningMutex.Unlock()
	delete(runner.running, item.SessionId)
}

// touch keeps NSQ from timing out the message of a running commit.
// Progress is reported after every placed file and before publishing.
func (runner *CommitRunner) touch(sessionId string, progress float64) {
	runner.runningMutex.Lock()
	item := runner.running[sessionId]
	runner.runningMutex.Unlock()
	if item != nil {
		item.TouchNSQ()
	}
}

func (runner *CommitRunner) logJson(item *models.CommitItem) {
	data, err := item.ToJson()
	if err != nil {
		runner.Context.MessageLog.Error("Cannot serialize commit item for session %s: %v",
			item.SessionId, err)
		return
	}
	runner.Context.JsonLog.Println(string(data))
}
