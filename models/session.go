package models

import (
	"encoding/json"
	"github.com/APTrust/ingest/constants"
	"github.com/satori/go.uuid"
	"time"
)

// Session is one ingest session: a staging area provisioned for an
// owner, the upload they put in it, and the commit that moves that
// upload into the archive and catalog.
//
// Processing and Complete are never both true. After a successful
// commit Progress is 100 and FailureText is empty. After a failure
// Complete is true, FailureText is set and Progress stays where the
// commit stopped.
type Session struct {
	Id              string          `json:"id"`
	Owner           string          `json:"owner"`
	Name            string          `json:"name"`
	TaskReference   string          `json:"task_reference"`
	Progress        float64         `json:"progress"`
	CredentialBlob  string          `json:"credential_blob"`
	CatalogDocument json.RawMessage `json:"catalog_document,omitempty"`
	Processing      bool            `json:"processing"`
	Complete        bool            `json:"complete"`
	FailureText     string          `json:"failure_text"`
	Created         time.Time       `json:"created"`
	Updated         time.Time       `json:"updated"`
}

// NewSession returns an idle session with a fresh id.
func NewSession(owner, name string) *Session {
	now := time.Now().UTC()
	return &Session{
		Id:      uuid.NewV4().String(),
		Owner:   owner,
		Name:    name,
		Created: now,
		Updated: now,
	}
}

// Succeeded returns true if the session's commit finished without error.
func (session *Session) Succeeded() bool {
	return session.Complete && session.FailureText == ""
}

// Failed returns true if the session ended in failure, either at
// provisioning or during its commit.
func (session *Session) Failed() bool {
	return session.Complete && session.FailureText != ""
}

// State derives the lifecycle state from the processing and
// complete flags.
func (session *Session) State() string {
	switch {
	case session.Processing:
		return constants.SessionProcessing
	case session.Succeeded():
		return constants.SessionSucceeded
	case session.Failed():
		return constants.SessionFailed
	}
	return constants.SessionIdle
}

// HasCatalogDocument returns true if the client attached a catalog
// document that should be published along with the manifest.
func (session *Session) HasCatalogDocument() bool {
	doc := string(session.CatalogDocument)
	return doc != "" && doc != "null" && doc != "{}"
}

func (session *Session) ToJson() (string, error) {
	bytes, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
