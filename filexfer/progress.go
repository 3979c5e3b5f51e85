package filexfer

import (
	"sync"
)

// ProgressRelay records progress with Recorder, then passes it on to
// every function registered with OnProgress. Listeners run on the
// goroutine that reported the progress.
type ProgressRelay struct {
	Recorder ProgressRecorder

	mutex     sync.RWMutex
	listeners []func(sessionId string, progress float64)
}

func NewProgressRelay(recorder ProgressRecorder) *ProgressRelay {
	return &ProgressRelay{
		Recorder:  recorder,
		listeners: make([]func(string, float64), 0),
	}
}

// OnProgress registers fn to be called after every SetProgress,
// whether or not recording succeeded.
func (relay *ProgressRelay) OnProgress(fn func(sessionId string, progress float64)) {
	relay.mutex.Lock()
	defer relay.mutex.Unlock()
	relay.listeners = append(relay.listeners, fn)
}

func (relay *ProgressRelay) SetProgress(sessionId string, progress float64) error {
	err := relay.Recorder.SetProgress(sessionId, progress)
	relay.mutex.RLock()
	listeners := relay.listeners
	relay.mutex.RUnlock()
	for _, fn := range listeners {
		fn(sessionId, progress)
	}
	return err
}
