package workers

import (
	"fmt"
	"github.com/APTrust/ingest/util/storage"
	"github.com/op/go-logging"
	"runtime/debug"
)

// FailureHandler finishes sessions whose commit failed. It is the one
// place that writes FailureText, and it never leaves a session
// processing.
type FailureHandler struct {
	Store *storage.SessionStore
	Log   *logging.Logger
}

func NewFailureHandler(store *storage.SessionStore, log *logging.Logger) *FailureHandler {
	return &FailureHandler{Store: store, Log: log}
}

// Handle marks the session failed with the text of cause. It returns
// an error only if the store could not be updated. A session that is
// already complete keeps its original outcome.
func (handler *FailureHandler) Handle(sessionId string, cause error) error {
	marked, err := handler.Store.MarkFailed(sessionId, FailureText(cause))
	if err != nil {
		handler.Log.Error("Cannot record failure of session %s (%v): %v", sessionId, cause, err)
		return err
	}
	if marked {
		handler.Log.Error("Session %s failed: %v", sessionId, cause)
	} else {
		handler.Log.Warning("Session %s failed after it was already complete or deleted: %v",
			sessionId, cause)
	}
	return nil
}

// FailureText is what gets stored in a failed session: the error
// message followed by the stack trace that errs classes record.
func FailureText(cause error) string {
	return fmt.Sprintf("%+v", cause)
}

// PanicError turns a recovered panic into an error carrying the
// goroutine's stack.
func PanicError(recovered interface{}) error {
	return fmt.Errorf("Commit panicked: %v\n%s", recovered, debug.Stack())
}
