package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"
	"time"
)

// ErrSessionNotFound is returned when no session has the requested id.
var ErrSessionNotFound = errs.Class("session not found")

// Error wraps database errors from the session store.
var Error = errs.Class("session store")

const createSessionTable = `
CREATE TABLE IF NOT EXISTS session (
	id               TEXT PRIMARY KEY,
	owner            TEXT NOT NULL,
	name             TEXT NOT NULL DEFAULT '',
	task_reference   TEXT NOT NULL DEFAULT '',
	progress         REAL NOT NULL DEFAULT 0,
	credential_blob  TEXT NOT NULL DEFAULT '',
	catalog_document TEXT NOT NULL DEFAULT '',
	processing       INTEGER NOT NULL DEFAULT 0,
	complete         INTEGER NOT NULL DEFAULT 0,
	deleting         INTEGER NOT NULL DEFAULT 0,
	failure_text     TEXT NOT NULL DEFAULT '',
	created          TEXT NOT NULL,
	updated          TEXT NOT NULL
)`

const createOwnerIndex = `CREATE INDEX IF NOT EXISTS session_owner ON session (owner)`

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	part  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
)`

const sessionColumns = `id, owner, name, task_reference, progress, credential_blob,
	catalog_document, processing, complete, failure_text, created, updated`

// SessionStore persists sessions in SQLite. Only the commit pipeline,
// the transfer backends (through SetProgress) and the failure handler
// change the processing, complete and progress fields. Every flag
// change is a single guarded UPDATE, so two processes sharing the
// database file cannot both win the same transition.
type SessionStore struct {
	db       *sql.DB
	filePath string
}

// NewSessionStore opens or creates the database at filePath and makes
// sure its schema is one this code understands.
func NewSessionStore(filePath string) (*SessionStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000", filePath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	// SQLite allows one writer at a time. A single connection keeps
	// writers in this process from tripping over each other.
	db.SetMaxOpenConns(1)
	store := &SessionStore{
		db:       db,
		filePath: filePath,
	}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (store *SessionStore) initSchema() error {
	for _, stmt := range []string{createSessionTable, createOwnerIndex, createVersionTable} {
		if _, err := store.db.Exec(stmt); err != nil {
			return Error.New("cannot create schema: %v", err)
		}
	}
	major, minor, err := store.SchemaVersion()
	if err == sql.ErrNoRows {
		_, err = store.db.Exec(`INSERT INTO schema_version (part, value) VALUES ('major', ?), ('minor', ?)`,
			constants.SchemaMajorVersion, constants.SchemaMinorVersion)
		return Error.Wrap(err)
	}
	if err != nil {
		return Error.Wrap(err)
	}
	if major > constants.SchemaMajorVersion {
		return Error.New("database schema %d.%d is newer than supported version %d.%d",
			major, minor, constants.SchemaMajorVersion, constants.SchemaMinorVersion)
	}
	return nil
}

// SchemaVersion returns the major and minor schema version recorded
// in the database.
func (store *SessionStore) SchemaVersion() (major, minor int, err error) {
	err = store.db.QueryRow(`SELECT value FROM schema_version WHERE part = 'major'`).Scan(&major)
	if err != nil {
		return 0, 0, err
	}
	err = store.db.QueryRow(`SELECT value FROM schema_version WHERE part = 'minor'`).Scan(&minor)
	return major, minor, err
}

// FilePath returns the path to the SQLite file.
func (store *SessionStore) FilePath() string {
	return store.filePath
}

func (store *SessionStore) Close() error {
	return store.db.Close()
}

// Insert saves a new session.
func (store *SessionStore) Insert(session *models.Session) error {
	now := time.Now().UTC()
	if session.Created.IsZero() {
		session.Created = now
	}
	session.Updated = now
	_, err := store.db.Exec(`INSERT INTO session (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.Id, session.Owner, session.Name, session.TaskReference,
		session.Progress, session.CredentialBlob, string(session.CatalogDocument),
		session.Processing, session.Complete, session.FailureText,
		formatTime(session.Created), formatTime(session.Updated))
	return Error.Wrap(err)
}

// Get returns the session with the given id if owner owns it.
func (store *SessionStore) Get(id, owner string) (*models.Session, error) {
	session, err := store.GetById(id)
	if err != nil {
		return nil, err
	}
	if session.Owner != owner {
		return nil, models.AuthorizationFailure.New("session %s does not belong to %s", id, owner)
	}
	return session, nil
}

// GetById returns the session with the given id regardless of owner.
// This is for the commit pipeline and failure handler, which act on
// behalf of the system.
func (store *SessionStore) GetById(id string) (*models.Session, error) {
	row := store.db.QueryRow(`SELECT `+sessionColumns+` FROM session WHERE id = ?`, id)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound.New("%s", id)
	}
	return session, err
}

// List returns owner's sessions, oldest first.
func (store *SessionStore) List(owner string) ([]*models.Session, error) {
	rows, err := store.db.Query(`SELECT `+sessionColumns+` FROM session
		WHERE owner = ? ORDER BY created, id`, owner)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer rows.Close()
	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, Error.Wrap(rows.Err())
}

// UpdateDetails changes the client-supplied name and catalog document.
// The catalog document cannot change once a commit has started.
func (store *SessionStore) UpdateDetails(id, owner, name string, catalogDocument json.RawMessage) error {
	session, err := store.Get(id, owner)
	if err != nil {
		return err
	}
	docChanged := string(catalogDocument) != string(session.CatalogDocument)
	if docChanged && (session.Processing || session.Complete) {
		return models.ConcurrencyGuardRejection.New(
			"catalog document of session %s cannot change after commit", id)
	}
	_, err = store.db.Exec(`UPDATE session SET name = ?, catalog_document = ?, updated = ?
		WHERE id = ? AND owner = ?`,
		name, string(catalogDocument), formatTime(time.Now().UTC()), id, owner)
	return Error.Wrap(err)
}

// StartCommit moves an idle session to processing and records
// taskReference. It returns false without error if the session is
// already processing or complete. The check and the set are one
// statement.
func (store *SessionStore) StartCommit(id, owner, taskReference string) (bool, error) {
	result, err := store.db.Exec(`UPDATE session
		SET processing = 1, task_reference = ?, progress = 0, updated = ?
		WHERE id = ? AND owner = ? AND processing = 0 AND complete = 0 AND deleting = 0`,
		taskReference, formatTime(time.Now().UTC()), id, owner)
	return affectedOne(result, err)
}

// SetProgress records commit progress. Progress only moves forward,
// and only while the session is processing.
func (store *SessionStore) SetProgress(id string, progress float64) error {
	_, err := store.db.Exec(`UPDATE session SET progress = ?, updated = ?
		WHERE id = ? AND processing = 1 AND progress <= ?`,
		progress, formatTime(time.Now().UTC()), id, progress)
	return Error.Wrap(err)
}

// MarkSucceeded finishes a processing session successfully.
func (store *SessionStore) MarkSucceeded(id string) (bool, error) {
	result, err := store.db.Exec(`UPDATE session
		SET processing = 0, complete = 1, progress = 100, failure_text = '', updated = ?
		WHERE id = ? AND processing = 1`,
		formatTime(time.Now().UTC()), id)
	return affectedOne(result, err)
}

// MarkFailed finishes a session that is not yet complete, recording
// failureText. Progress is left alone. Returns false if the session
// was already complete or does not exist.
func (store *SessionStore) MarkFailed(id, failureText string) (bool, error) {
	result, err := store.db.Exec(`UPDATE session
		SET processing = 0, complete = 1, failure_text = ?, updated = ?
		WHERE id = ? AND complete = 0`,
		failureText, formatTime(time.Now().UTC()), id)
	return affectedOne(result, err)
}

// ClaimDeletion marks the session as being deleted. Only one caller
// can hold the claim. Processing sessions cannot be claimed.
func (store *SessionStore) ClaimDeletion(id, owner string) (bool, error) {
	result, err := store.db.Exec(`UPDATE session SET deleting = 1, updated = ?
		WHERE id = ? AND owner = ? AND deleting = 0 AND processing = 0`,
		formatTime(time.Now().UTC()), id, owner)
	return affectedOne(result, err)
}

// ReleaseDeletion gives up a deletion claim so it can be retried.
func (store *SessionStore) ReleaseDeletion(id string) error {
	_, err := store.db.Exec(`UPDATE session SET deleting = 0 WHERE id = ?`, id)
	return Error.Wrap(err)
}

// Delete removes the session record.
func (store *SessionStore) Delete(id string) error {
	_, err := store.db.Exec(`DELETE FROM session WHERE id = ?`, id)
	return Error.Wrap(err)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	session := &models.Session{}
	var catalogDocument, created, updated string
	err := row.Scan(&session.Id, &session.Owner, &session.Name, &session.TaskReference,
		&session.Progress, &session.CredentialBlob, &catalogDocument,
		&session.Processing, &session.Complete, &session.FailureText,
		&created, &updated)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if catalogDocument != "" {
		session.CatalogDocument = json.RawMessage(catalogDocument)
	}
	if session.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, Error.New("bad created time on session %s: %v", session.Id, err)
	}
	if session.Updated, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, Error.New("bad updated time on session %s: %v", session.Id, err)
	}
	return session, nil
}

func affectedOne(result sql.Result, err error) (bool, error) {
	if err != nil {
		return false, Error.Wrap(err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, Error.Wrap(err)
	}
	return count == 1, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
