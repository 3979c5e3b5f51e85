package workers

import (
	"encoding/json"
	"github.com/APTrust/ingest/context"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/network"
)

// NSQDispatcher hands commits to ingest_worker processes by
// publishing them to the commit topic. A CommitRunner on the other
// end receives them through HandleMessage.
type NSQDispatcher struct {
	Client *network.NSQClient
	Topic  string
}

func NewNSQDispatcher(_context *context.Context) *NSQDispatcher {
	return &NSQDispatcher{
		Client: _context.NSQClient,
		Topic:  _context.Config.CommitWorker.NsqTopic,
	}
}

func (dispatcher *NSQDispatcher) Dispatch(sessionId, taskReference string) error {
	body, err := json.Marshal(&models.CommitMessage{
		SessionId:     sessionId,
		TaskReference: taskReference,
	})
	if err != nil {
		return err
	}
	return dispatcher.Client.Enqueue(dispatcher.Topic, body)
}
