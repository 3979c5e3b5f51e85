package network

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// ArchiveClient stores files in a remote archive interface with
// PUT /<file id>.
type ArchiveClient struct {
	*restClient
}

func NewArchiveClient(hostUrl string, timeout time.Duration) *ArchiveClient {
	return &ArchiveClient{restClient: newRestClient(hostUrl, timeout)}
}

// PutFile uploads the file at localPath as fileId. The archive must
// answer with a 2xx status.
func (client *ArchiveClient) PutFile(fileId int64, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return err
	}
	absUrl := client.BuildUrl(fmt.Sprintf("/%d", fileId), nil)
	request, err := client.newRequest("PUT", absUrl, file)
	if err != nil {
		return err
	}
	request.ContentLength = stat.Size()
	request.Header.Set("Content-Type", "application/octet-stream")
	request.Header.Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	request.Header.Set("Last-Modified", stat.ModTime().UTC().Format(http.TimeFormat))
	resp := &Response{}
	client._doRequest(resp, request)
	if err = resp.EnsureStatus(); err != nil {
		return fmt.Errorf("Archive rejected file %d (%s): %v", fileId, localPath, err)
	}
	return nil
}
