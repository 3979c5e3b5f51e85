package workers

import (
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/nsqio/go-nsq"
)

// CreateNsqConsumer returns an NSQ consumer for workerConfig's topic
// and channel. If MaxInFlight is not set, the consumer takes as many
// messages as there are commit goroutines.
func CreateNsqConsumer(config *models.Config, workerConfig *models.WorkerConfig) (*nsq.Consumer, error) {
	if workerConfig.NsqTopic == "" || workerConfig.NsqChannel == "" {
		return nil, fmt.Errorf("NsqTopic and NsqChannel are required to consume from %s", config.NsqLookupd)
	}
	maxInFlight := workerConfig.MaxInFlight
	if maxInFlight < 1 {
		maxInFlight = workerConfig.Workers
	}
	nsqConfig := nsq.NewConfig()
	settings := map[string]interface{}{
		"max_in_flight":      maxInFlight,
		"heartbeat_interval": workerConfig.HeartbeatInterval,
		"max_attempts":       workerConfig.MaxAttempts,
		"read_timeout":       workerConfig.ReadTimeout,
		"write_timeout":      workerConfig.WriteTimeout,
		"msg_timeout":        workerConfig.MessageTimeout,
	}
	for option, value := range settings {
		if value == "" {
			continue
		}
		if err := nsqConfig.Set(option, value); err != nil {
			return nil, fmt.Errorf("Bad NSQ setting %s=%v: %v", option, value, err)
		}
	}
	return nsq.NewConsumer(workerConfig.NsqTopic, workerConfig.NsqChannel, nsqConfig)
}
