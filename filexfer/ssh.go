package filexfer

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util"
	"github.com/APTrust/ingest/util/fileutil"
	"golang.org/x/crypto/ssh"
	"io/ioutil"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
)

// CommandRunner runs an external command. It returns the command's
// exit code and combined output. err is set only when the command
// could not be run at all.
type CommandRunner interface {
	Run(name string, args ...string) (exitCode int, output []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(name string, args ...string) (int, []byte, error) {
	output, err := exec.Command(name, args...).CombinedOutput()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), output, nil
	}
	if err != nil {
		return -1, output, err
	}
	return 0, output, nil
}

// SSHBackend creates a system account for each session. The account
// can only sftp into its own upload directory, authenticating with a
// key pair generated for the session. This backend must run as root.
type SSHBackend struct {
	deps *Deps

	// KeyBits is the RSA key size.
	KeyBits int
	// Runner runs useradd, userdel and pkill.
	Runner CommandRunner
	// LookupUser returns the account, or user.UnknownUserError.
	LookupUser func(username string) (*user.User, error)
	// Chown changes file ownership.
	Chown func(path string, uid, gid int) error
}

type sshCredentials struct {
	Username   string `json:"username"`
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

func NewSSHBackend(deps *Deps) (Backend, error) {
	settings := deps.Config.Ingest
	if settings.SessionPath == "" || settings.SSHAuthKeysDir == "" || settings.SFTPGroup == "" {
		return nil, fmt.Errorf("The ssh backend requires Ingest.SessionPath, SSHAuthKeysDir and SFTPGroup")
	}
	return &SSHBackend{
		deps:       deps,
		KeyBits:    constants.SSHKeyBits,
		Runner:     execRunner{},
		LookupUser: user.Lookup,
		Chown:      os.Chown,
	}, nil
}

// GenerateCredentials makes a key pair and a random account name.
// The private key is PEM encoded PKCS#1. The public key is in
// authorized_keys format.
func (backend *SSHBackend) GenerateCredentials(session *models.Session) (string, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, backend.KeyBits)
	if err != nil {
		return "", err
	}
	publicKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return "", err
	}
	privatePem := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	username, err := util.RandomLowerAlphaNumeric(constants.SSHUsernameLength)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(&sshCredentials{
		Username:   username,
		PrivateKey: string(privatePem),
		PublicKey:  strings.TrimSpace(string(ssh.MarshalAuthorizedKey(publicKey))),
	})
	return string(data), err
}

func (backend *SSHBackend) Provision(session *models.Session) error {
	creds, err := parseSSHCredentials(session)
	if err != nil {
		return err
	}
	homeDir := backend.homeDir(creds.Username)
	if err = backend.run("/usr/sbin/useradd", "--home-dir", homeDir, "--no-create-home",
		"--gid", backend.deps.Config.Ingest.SFTPGroup, "--shell", "/sbin/nologin",
		creds.Username); err != nil {
		return err
	}
	account, err := backend.LookupUser(creds.Username)
	if err != nil {
		return err
	}
	uid, err := strconv.Atoi(account.Uid)
	if err != nil {
		return fmt.Errorf("Account %s has non-numeric uid %s", creds.Username, account.Uid)
	}
	gid, err := strconv.Atoi(account.Gid)
	if err != nil {
		return fmt.Errorf("Account %s has non-numeric gid %s", creds.Username, account.Gid)
	}

	// sshd's ChrootDirectory must be owned by root and not writable by
	// anyone else, so only upload belongs to the session account.
	uploadDir := filepath.Join(homeDir, "upload")
	if err = backend.makeDir(homeDir, 0, gid, 0750); err != nil {
		return err
	}
	if err = backend.makeDir(uploadDir, uid, gid, 0700); err != nil {
		return err
	}
	keyFile := backend.keyFile(creds.Username)
	if err = ioutil.WriteFile(keyFile, []byte(creds.PublicKey+"\n"), 0400); err != nil {
		return err
	}
	if err = os.Chmod(keyFile, 0400); err != nil {
		return err
	}
	return backend.Chown(keyFile, uid, gid)
}

// Deprovision kills the account's processes, removes its key and home
// directory, then removes the account. Each step is skipped when there
// is nothing to undo, so repeated calls succeed.
func (backend *SSHBackend) Deprovision(session *models.Session) error {
	if session.CredentialBlob == "" {
		return nil
	}
	creds, err := parseSSHCredentials(session)
	if err != nil {
		return err
	}
	exists, err := backend.userExists(creds.Username)
	if err != nil {
		return err
	}
	if exists {
		// pkill exits 1 when nothing matched.
		exitCode, output, err := backend.Runner.Run("/usr/bin/pkill", "-KILL", "-u", creds.Username)
		if err != nil {
			return err
		}
		if exitCode != 0 && exitCode != 1 {
			return fmt.Errorf("pkill -u %s exited %d: %s", creds.Username, exitCode, strings.TrimSpace(string(output)))
		}
	}
	keyFile := backend.keyFile(creds.Username)
	if fileutil.FileExists(keyFile) {
		if err = os.Remove(keyFile); err != nil {
			return err
		}
	}
	homeDir := backend.homeDir(creds.Username)
	if fileutil.LooksSafeToDelete(homeDir, 12, 2) {
		if err = os.RemoveAll(homeDir); err != nil {
			return err
		}
	}
	if exists {
		return backend.run("/usr/sbin/userdel", creds.Username)
	}
	return nil
}

func (backend *SSHBackend) CollectAndPlace(session *models.Session) (models.Manifest, error) {
	stagingDir, err := backend.StagingDir(session)
	if err != nil {
		return make(models.Manifest, 0), err
	}
	return collectAndPlace(backend.deps, session, stagingDir)
}

// StagingDir returns the account's upload directory.
func (backend *SSHBackend) StagingDir(session *models.Session) (string, error) {
	creds, err := parseSSHCredentials(session)
	if err != nil {
		return "", err
	}
	return filepath.Join(backend.homeDir(creds.Username), "upload"), nil
}

func (backend *SSHBackend) homeDir(username string) string {
	return filepath.Join(backend.deps.Config.Ingest.SessionPath, username)
}

func (backend *SSHBackend) keyFile(username string) string {
	return filepath.Join(backend.deps.Config.Ingest.SSHAuthKeysDir, username)
}

func (backend *SSHBackend) makeDir(dir string, uid, gid int, mode os.FileMode) error {
	if err := os.Mkdir(dir, mode); err != nil && !os.IsExist(err) {
		return err
	}
	if err := backend.Chown(dir, uid, gid); err != nil {
		return err
	}
	return os.Chmod(dir, mode)
}

func (backend *SSHBackend) userExists(username string) (bool, error) {
	_, err := backend.LookupUser(username)
	if _, unknown := err.(user.UnknownUserError); unknown {
		return false, nil
	}
	return err == nil, err
}

func (backend *SSHBackend) run(name string, args ...string) error {
	exitCode, output, err := backend.Runner.Run(name, args...)
	if err != nil {
		return fmt.Errorf("Cannot run %s: %v", name, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%s %s exited %d: %s", name, strings.Join(args, " "),
			exitCode, strings.TrimSpace(string(output)))
	}
	return nil
}

func parseSSHCredentials(session *models.Session) (*sshCredentials, error) {
	creds := &sshCredentials{}
	if err := json.Unmarshal([]byte(session.CredentialBlob), creds); err != nil {
		return nil, fmt.Errorf("Bad credentials for session %s: %v", session.Id, err)
	}
	if !constants.SSHUsernamePattern.MatchString(creds.Username) {
		return nil, fmt.Errorf("Bad ssh username '%s' for session %s", creds.Username, session.Id)
	}
	return creds, nil
}
