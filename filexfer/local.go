package filexfer

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/fileutil"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend gives each session a plain directory under
// Ingest.SessionPath. There is no per-session OS identity, so clients
// need some other way to write into the directory, such as a shared
// mount. Single-host deployments and tests use this backend.
type LocalBackend struct {
	deps        *Deps
	sessionPath string
}

type localCredentials struct {
	Directory string `json:"directory"`
}

func NewLocalBackend(deps *Deps) (Backend, error) {
	sessionPath := deps.Config.Ingest.SessionPath
	if !filepath.IsAbs(sessionPath) {
		return nil, fmt.Errorf("Ingest.SessionPath '%s' must be absolute", sessionPath)
	}
	return &LocalBackend{deps: deps, sessionPath: filepath.Clean(sessionPath)}, nil
}

func (backend *LocalBackend) GenerateCredentials(session *models.Session) (string, error) {
	data, err := json.Marshal(&localCredentials{
		Directory: filepath.Join(backend.sessionPath, session.Id),
	})
	return string(data), err
}

func (backend *LocalBackend) Provision(session *models.Session) error {
	dir, err := backend.sessionDir(session)
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(dir, "upload"), 0755)
}

// Deprovision deletes the session directory and everything in it.
// A missing directory is not an error.
func (backend *LocalBackend) Deprovision(session *models.Session) error {
	if session.CredentialBlob == "" {
		return nil
	}
	dir, err := backend.sessionDir(session)
	if err != nil {
		return err
	}
	if !fileutil.LooksSafeToDelete(dir, 12, 2) {
		return fmt.Errorf("Refusing to delete session directory '%s'", dir)
	}
	return os.RemoveAll(dir)
}

func (backend *LocalBackend) CollectAndPlace(session *models.Session) (models.Manifest, error) {
	stagingDir, err := backend.StagingDir(session)
	if err != nil {
		return make(models.Manifest, 0), err
	}
	return collectAndPlace(backend.deps, session, stagingDir)
}

// StagingDir returns the directory clients upload into.
func (backend *LocalBackend) StagingDir(session *models.Session) (string, error) {
	dir, err := backend.sessionDir(session)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "upload"), nil
}

// sessionDir reads the directory from the credential blob and makes
// sure it is a child of the session path.
func (backend *LocalBackend) sessionDir(session *models.Session) (string, error) {
	creds := &localCredentials{}
	if err := json.Unmarshal([]byte(session.CredentialBlob), creds); err != nil {
		return "", fmt.Errorf("Bad credentials for session %s: %v", session.Id, err)
	}
	dir := filepath.Clean(creds.Directory)
	if !strings.HasPrefix(dir, backend.sessionPath+string(os.PathSeparator)) {
		return "", fmt.Errorf("Session directory '%s' is outside %s", dir, backend.sessionPath)
	}
	return dir, nil
}
