// Package metaxfer publishes a committed session's metadata to an
// external catalog.
package metaxfer

import (
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/logger"
	"github.com/op/go-logging"
)

// Publisher sends the session and its manifest to a catalog and
// returns the ids of the catalog records it created.
type Publisher interface {
	Publish(session *models.Session, manifest models.Manifest) ([]string, error)
}

// NewPublisher builds a Publisher from config.
type NewPublisher func(config *models.Config, log *logging.Logger) (Publisher, error)

// Publishers maps Metadata.Type values to constructors.
var Publishers = map[string]NewPublisher{
	constants.MetadataDrupalJSONAPI: NewDrupalPublisher,
	constants.MetadataNone:          NewNonePublisher,
}

// New returns the Publisher named by config.Metadata.Type.
func New(config *models.Config, log *logging.Logger) (Publisher, error) {
	newPublisher, ok := Publishers[config.Metadata.Type]
	if !ok {
		return nil, fmt.Errorf("Unknown metadata type '%s'", config.Metadata.Type)
	}
	if log == nil {
		log = logger.DiscardLogger("metaxfer")
	}
	return newPublisher(config, log)
}

// NonePublisher publishes nothing. It is for deployments without a
// catalog.
type NonePublisher struct {
	log *logging.Logger
}

func NewNonePublisher(config *models.Config, log *logging.Logger) (Publisher, error) {
	return &NonePublisher{log: log}, nil
}

func (publisher *NonePublisher) Publish(session *models.Session, manifest models.Manifest) ([]string, error) {
	publisher.log.Info("No catalog configured. Skipping metadata for session %s (%d files)",
		session.Id, len(manifest))
	return []string{}, nil
}
