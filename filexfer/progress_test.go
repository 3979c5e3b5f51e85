package filexfer_test

import (
	"fmt"
	"github.com/APTrust/ingest/filexfer"
	"github.com/stretchr/testify/assert"
	"testing"
)

type failingRecorder struct {
	calls int
}

func (recorder *failingRecorder) SetProgress(sessionId string, progress float64) error {
	recorder.calls++
	return fmt.Errorf("database is locked")
}

func TestProgressRelay(t *testing.T) {
	recorder := &progressLog{}
	relay := filexfer.NewProgressRelay(recorder)
	heard := make([]string, 0)
	relay.OnProgress(func(sessionId string, progress float64) {
		heard = append(heard, fmt.Sprintf("%s:%.0f", sessionId, progress))
	})

	assert.Nil(t, relay.SetProgress("s1", 25))
	assert.Nil(t, relay.SetProgress("s1", 50))
	assert.Equal(t, []float64{25, 50}, recorder.values)
	assert.Equal(t, []string{"s1:25", "s1:50"}, heard)
}

func TestProgressRelayRecorderError(t *testing.T) {
	recorder := &failingRecorder{}
	relay := filexfer.NewProgressRelay(recorder)
	heard := 0
	relay.OnProgress(func(string, float64) { heard++ })

	assert.NotNil(t, relay.SetProgress("s1", 10))
	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, 1, heard)
}
