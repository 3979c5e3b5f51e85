package network

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// UniqueIdClient asks the unique id service for contiguous ranges
// of archive ids.
type UniqueIdClient struct {
	*restClient
}

type uniqueIdResult struct {
	StartIndex *int64 `json:"startIndex"`
	EndIndex   *int64 `json:"endIndex"`
}

func NewUniqueIdClient(hostUrl string, timeout time.Duration) *UniqueIdClient {
	return &UniqueIdClient{restClient: newRestClient(hostUrl, timeout)}
}

// GetUniqueId reserves idRange consecutive ids in the given mode and
// returns the first one. The reserved ids are start through
// start + idRange - 1.
func (client *UniqueIdClient) GetUniqueId(idRange int, mode string) (int64, error) {
	if idRange < 1 {
		return 0, fmt.Errorf("Id range must be at least 1, got %d", idRange)
	}
	params := url.Values{}
	params.Set("range", strconv.Itoa(idRange))
	params.Set("mode", mode)
	request, err := client.newRequest("GET", client.BuildUrl("/getid", &params), nil)
	if err != nil {
		return 0, err
	}
	request.Header.Set("Accept", "application/json")
	resp := &Response{}
	client._doRequest(resp, request)
	if err = resp.EnsureStatus(); err != nil {
		return 0, fmt.Errorf("Unique id service: %v", err)
	}
	result := &uniqueIdResult{}
	if err = json.Unmarshal(resp.data, result); err != nil {
		return 0, fmt.Errorf("Unique id service returned invalid JSON: %v", err)
	}
	if result.StartIndex == nil {
		return 0, fmt.Errorf("Unique id service response has no startIndex: %s", string(resp.data))
	}
	return *result.StartIndex, nil
}
