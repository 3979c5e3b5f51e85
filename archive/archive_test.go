package archive_test

import (
	"github.com/APTrust/ingest/archive"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestId2Filename(t *testing.T) {
	assert.Equal(t, "file.0", archive.Id2Filename(0))
	assert.Equal(t, "file.1f", archive.Id2Filename(0x1f))
	assert.Equal(t, "d2/file.4", archive.Id2Filename(1234))
	assert.Equal(t, "34/file.12", archive.Id2Filename(0x1234))
	assert.Equal(t, "78/56/34/file.12", archive.Id2Filename(0x12345678))
	// Distinct ids never collide.
	seen := make(map[string]int64)
	for id := int64(0); id < 5000; id++ {
		name := archive.Id2Filename(id)
		_, exists := seen[name]
		require.False(t, exists, "id %d collides with %d", id, seen[name])
		seen[name] = id
	}
}

func TestObjectName(t *testing.T) {
	config := &models.Config{}
	assert.Equal(t, "1234", archive.ObjectName(config, 1234))
	config.ArchiveInterface.UseId2Filename = true
	assert.Equal(t, "d2/file.4", archive.ObjectName(config, 1234))
}

func TestNewRequiresModeSettings(t *testing.T) {
	config := &models.Config{}
	config.ArchiveInterface.Mode = "tape"
	_, err := archive.New(config)
	assert.NotNil(t, err)

	for _, mode := range constants.ArchiveModes {
		config.ArchiveInterface = models.ArchiveConfig{Mode: mode}
		_, err := archive.New(config)
		assert.NotNil(t, err, "mode %s should require settings", mode)
	}
}

func stageFile(t *testing.T, content string) (string, func()) {
	dir, err := ioutil.TempDir("", "archive_test_staging")
	require.Nil(t, err)
	path := filepath.Join(dir, "data.txt")
	require.Nil(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path, func() { os.RemoveAll(dir) }
}

func TestEmbeddedPlace(t *testing.T) {
	prefix, err := ioutil.TempDir("", "archive_test_prefix")
	require.Nil(t, err)
	defer os.RemoveAll(prefix)
	staged, cleanup := stageFile(t, "embedded content")
	defer cleanup()

	config := &models.Config{}
	config.ArchiveInterface = models.ArchiveConfig{
		Mode:           constants.ArchiveEmbedded,
		Prefix:         prefix,
		UseId2Filename: true,
	}
	arch, err := archive.New(config)
	require.Nil(t, err)
	require.Nil(t, arch.Place(1234, staged))

	placed := filepath.Join(prefix, "d2", "file.4")
	data, err := ioutil.ReadFile(placed)
	require.Nil(t, err)
	assert.Equal(t, "embedded content", string(data))
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))

	embedded := arch.(*archive.EmbeddedArchive)
	assert.Equal(t, placed, embedded.PathFor(1234))

	// Missing source file.
	assert.NotNil(t, arch.Place(99, staged))
}

func TestHTTPPlace(t *testing.T) {
	var mutex sync.Mutex
	received := make(map[string]string)
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		mutex.Lock()
		received[r.URL.Path] = string(body)
		mutex.Unlock()
		if r.URL.Path == "/13" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer testServer.Close()
	staged, cleanup := stageFile(t, "http content")
	defer cleanup()

	config := &models.Config{HTTPTimeout: "5s"}
	config.ArchiveInterface = models.ArchiveConfig{
		Mode: constants.ArchiveHTTP,
		URL:  testServer.URL,
	}
	arch, err := archive.New(config)
	require.Nil(t, err)
	require.Nil(t, arch.Place(12, staged))
	assert.Equal(t, "http content", received["/12"])

	assert.NotNil(t, arch.Place(13, staged))
}
