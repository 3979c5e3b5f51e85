package models

import (
	"encoding/json"
	"github.com/APTrust/ingest/constants"
	"github.com/nsqio/go-nsq"
	"os"
	"time"
)

// CommitItem is the unit of work the commit runner processes and
// records in its journal. It is keyed by SessionId.
type CommitItem struct {
	SessionId     string
	TaskReference string
	State         string
	Node          string
	Pid           int
	QueuedAt      time.Time
	Summary       *WorkSummary

	// NSQMessage is set when the item came from NSQ. It is not
	// persisted.
	NSQMessage *nsq.Message `json:"-"`
}

// CommitMessage is the body of the NSQ messages that carry commits.
type CommitMessage struct {
	SessionId     string `json:"session_id"`
	TaskReference string `json:"task_reference"`
}

func NewCommitItem(sessionId, taskReference string) *CommitItem {
	hostname, _ := os.Hostname()
	return &CommitItem{
		SessionId:     sessionId,
		TaskReference: taskReference,
		State:         constants.CommitQueued,
		Node:          hostname,
		Pid:           os.Getpid(),
		QueuedAt:      time.Now().UTC(),
		Summary:       NewWorkSummary(),
	}
}

func CommitItemFromJson(data []byte) (*CommitItem, error) {
	item := &CommitItem{}
	err := json.Unmarshal(data, item)
	return item, err
}

func (item *CommitItem) ToJson() ([]byte, error) {
	return json.Marshal(item)
}

// Tell NSQ we're still working on this item. NSQMessage will be nil
// if the item was dispatched in-process.
func (item *CommitItem) TouchNSQ() {
	if item.NSQMessage != nil {
		item.NSQMessage.Touch()
	}
}

// Tell NSQ we're done with this message.
func (item *CommitItem) FinishNSQ() {
	if item.NSQMessage != nil {
		item.NSQMessage.Finish()
	}
}
