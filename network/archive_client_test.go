package network_test

import (
	"github.com/APTrust/ingest/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type archiveRecorder struct {
	mutex   sync.Mutex
	status  int
	paths   []string
	bodies  []string
	headers []http.Header
	lengths []int64
}

func (recorder *archiveRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)
	recorder.mutex.Lock()
	recorder.paths = append(recorder.paths, r.Method+" "+r.URL.Path)
	recorder.bodies = append(recorder.bodies, string(body))
	recorder.headers = append(recorder.headers, r.Header)
	recorder.lengths = append(recorder.lengths, r.ContentLength)
	status := recorder.status
	recorder.mutex.Unlock()
	if status == 0 {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
}

func writeTempFile(t *testing.T, content string) (string, func()) {
	dir, err := ioutil.TempDir("", "archive_client_test")
	require.Nil(t, err)
	path := filepath.Join(dir, "upload.bin")
	require.Nil(t, ioutil.WriteFile(path, []byte(content), 0644))
	modTime := time.Date(2019, 3, 14, 15, 9, 26, 0, time.UTC)
	require.Nil(t, os.Chtimes(path, modTime, modTime))
	return path, func() { os.RemoveAll(dir) }
}

func TestPutFile(t *testing.T) {
	recorder := &archiveRecorder{}
	testServer := httptest.NewServer(recorder)
	defer testServer.Close()
	path, cleanup := writeTempFile(t, "hello archive")
	defer cleanup()

	client := network.NewArchiveClient(testServer.URL, 5*time.Second)
	require.Nil(t, client.PutFile(1234, path))

	require.Equal(t, 1, len(recorder.paths))
	assert.Equal(t, "PUT /1234", recorder.paths[0])
	assert.Equal(t, "hello archive", recorder.bodies[0])
	header := recorder.headers[0]
	assert.Equal(t, "application/octet-stream", header.Get("Content-Type"))
	assert.EqualValues(t, 13, recorder.lengths[0])
	assert.Equal(t, "Thu, 14 Mar 2019 15:09:26 GMT", header.Get("Last-Modified"))

	// Local file still exists. Remote placement copies.
	_, err := os.Stat(path)
	assert.Nil(t, err)
}

func TestPutFileRejected(t *testing.T) {
	recorder := &archiveRecorder{status: http.StatusInsufficientStorage}
	testServer := httptest.NewServer(recorder)
	defer testServer.Close()
	path, cleanup := writeTempFile(t, "x")
	defer cleanup()

	client := network.NewArchiveClient(testServer.URL, 5*time.Second)
	err := client.PutFile(99, path)
	require.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "Archive rejected file 99"))
	assert.True(t, strings.Contains(err.Error(), "507"))

	err = client.PutFile(100, filepath.Join(filepath.Dir(path), "missing.bin"))
	assert.NotNil(t, err)
}
