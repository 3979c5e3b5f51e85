package testutil

import (
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"github.com/op/go-logging"
	"io/ioutil"
	"os"
	"path/filepath"
)

// TestRoot creates a temp directory for one test's sessions, archive,
// database and journal. Call the returned function to remove it.
func TestRoot(prefix string) (string, func(), error) {
	dir, err := ioutil.TempDir("", prefix)
	if err != nil {
		return "", nil, err
	}
	// Resolve symlinks so that paths compare cleanly on macOS,
	// where /tmp is a link.
	dir, err = filepath.EvalSymlinks(dir)
	if err != nil {
		return "", nil, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

// NewTestConfig returns a config using the local backend and the
// embedded archive, with every path under rootDir. The id service and
// catalog URLs must be filled in by the caller if they are used.
func NewTestConfig(rootDir string) *models.Config {
	config := &models.Config{
		ActiveConfig: "test",
		DatabasePath: filepath.Join(rootDir, "sessions.db"),
		JournalPath:  filepath.Join(rootDir, "journal.db"),
		LogDirectory: filepath.Join(rootDir, "logs"),
		LogLevel:     logging.INFO,
		HTTPTimeout:  "5s",
		Ingest: models.IngestConfig{
			TransferBackend: constants.BackendLocal,
			TransferSize:    "4 MiB",
			HashType:        constants.AlgSha256,
			SessionPath:     filepath.Join(rootDir, "sessions"),
			SSHAuthKeysDir:  filepath.Join(rootDir, "keys"),
			SFTPGroup:       "sftponly",
		},
		ArchiveInterface: models.ArchiveConfig{
			Mode:           constants.ArchiveEmbedded,
			Prefix:         filepath.Join(rootDir, "archive"),
			UseId2Filename: true,
		},
		Metadata: models.MetadataConfig{
			Type: constants.MetadataNone,
		},
		CommitWorker: models.WorkerConfig{
			Workers:    2,
			NsqTopic:   "commit_topic",
			NsqChannel: "commit_worker_chan",
		},
	}
	for _, dir := range []string{config.LogDirectory, config.Ingest.SessionPath,
		config.Ingest.SSHAuthKeysDir, config.ArchiveInterface.Prefix} {
		os.MkdirAll(dir, 0755)
	}
	return config
}

// WriteFiles writes each path and content in files under dir,
// creating subdirectories as needed. Paths use forward slashes.
func WriteFiles(dir string, files map[string]string) error {
	for relPath, content := range files {
		absPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return err
		}
		if err := ioutil.WriteFile(absPath, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// WriteSizedFiles writes one file per entry in sizes, named
// file_<n>.dat, each filled with size bytes of the letter 'a'+n.
func WriteSizedFiles(dir string, sizes ...int) ([]string, error) {
	names := make([]string, len(sizes))
	for i, size := range sizes {
		names[i] = fmt.Sprintf("file_%d.dat", i)
		content := make([]byte, size)
		for j := range content {
			content[j] = byte('a' + i%26)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		if err := ioutil.WriteFile(filepath.Join(dir, names[i]), content, 0644); err != nil {
			return nil, err
		}
	}
	return names, nil
}
