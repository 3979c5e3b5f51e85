package testutil

import (
	"github.com/nsqio/go-nsq"
	"sync"
	"time"
)

// NSQTestDelegate is a struct used in unit tests to capture
// NSQ messages and actions. The interface we're mocking is
// the MessageDelegate interface defined here:
// https://github.com/nsqio/go-nsq/blob/master/delegates.go#L35
//
// Commit workers call Finish and Touch from their own goroutines,
// so every field is read through a method.
type NSQTestDelegate struct {
	mutex      sync.Mutex
	message    *nsq.Message
	delay      time.Duration
	backoff    bool
	operations []string
}

// NewNSQTestDelegate returns a pointer to a new NSQTestDelegate.
func NewNSQTestDelegate() *NSQTestDelegate {
	return &NSQTestDelegate{operations: make([]string, 0)}
}

// OnFinish receives the Finish() call from an NSQ message.
func (delegate *NSQTestDelegate) OnFinish(message *nsq.Message) {
	delegate.record(message, "finish")
}

// OnRequeue receives the Requeue() call from an NSQ message.
func (delegate *NSQTestDelegate) OnRequeue(message *nsq.Message, delay time.Duration, backoff bool) {
	delegate.mutex.Lock()
	delegate.delay = delay
	delegate.backoff = backoff
	delegate.mutex.Unlock()
	delegate.record(message, "requeue")
}

// OnTouch receives the Touch() call from an NSQ message.
func (delegate *NSQTestDelegate) OnTouch(message *nsq.Message) {
	delegate.record(message, "touch")
}

func (delegate *NSQTestDelegate) record(message *nsq.Message, operation string) {
	delegate.mutex.Lock()
	defer delegate.mutex.Unlock()
	delegate.message = message
	delegate.operations = append(delegate.operations, operation)
}

// Message returns the last message the delegate saw.
func (delegate *NSQTestDelegate) Message() *nsq.Message {
	delegate.mutex.Lock()
	defer delegate.mutex.Unlock()
	return delegate.message
}

// Operation returns the last operation, or "" if there was none.
func (delegate *NSQTestDelegate) Operation() string {
	delegate.mutex.Lock()
	defer delegate.mutex.Unlock()
	if len(delegate.operations) == 0 {
		return ""
	}
	return delegate.operations[len(delegate.operations)-1]
}

// Operations returns every operation in the order received.
func (delegate *NSQTestDelegate) Operations() []string {
	delegate.mutex.Lock()
	defer delegate.mutex.Unlock()
	return append([]string{}, delegate.operations...)
}

// Requeue returns the delay and backoff of the last requeue.
func (delegate *NSQTestDelegate) Requeue() (time.Duration, bool) {
	delegate.mutex.Lock()
	defer delegate.mutex.Unlock()
	return delegate.delay, delegate.backoff
}

// MakeNsqMessage returns an NSQ message with the given body.
func MakeNsqMessage(body string) *nsq.Message {
	messageId := [nsq.MsgIDLength]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'A', 'B', 'C', 'D', 'E', 'F'}
	return nsq.NewMessage(messageId, []byte(body))
}

// MakeNsqMessageWithDelegate returns a message whose Finish, Touch
// and Requeue calls go to delegate.
func MakeNsqMessageWithDelegate(body string, delegate *NSQTestDelegate) *nsq.Message {
	message := MakeNsqMessage(body)
	message.Delegate = delegate
	return message
}
