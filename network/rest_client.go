package network

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Don't log error messages longer than this
const MAX_ERR_MSG_SIZE = 2048

// restClient holds what the id service, archive and catalog clients
// have in common: a base URL, a tuned transport, and headers that go
// on every request.
type restClient struct {
	HostUrl    string
	headers    map[string]string
	apiUser    string
	apiKey     string
	httpClient *http.Client
	transport  *http.Transport
}

func newRestClient(hostUrl string, timeout time.Duration) *restClient {
	transport := &http.Transport{
		MaxIdleConnsPerHost: 8,
		DisableKeepAlives:   false,
		Dial: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).Dial,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   10 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
	// Trim trailing slashes from host url
	for strings.HasSuffix(hostUrl, "/") {
		hostUrl = hostUrl[:len(hostUrl)-1]
	}
	return &restClient{
		HostUrl:    hostUrl,
		headers:    make(map[string]string),
		httpClient: httpClient,
		transport:  transport,
	}
}

// BuildUrl combines the host and protocol in client.HostUrl with
// relativeUrl to create an absolute URL. For example, if client.HostUrl
// is "http://localhost:3456", then client.BuildUrl("/path/to/action.json")
// would return "http://localhost:3456/path/to/action.json".
func (client *restClient) BuildUrl(relativeUrl string, queryParams *url.Values) string {
	fullUrl := client.HostUrl + relativeUrl
	if queryParams != nil {
		fullUrl = fmt.Sprintf("%s?%s", fullUrl, queryParams.Encode())
	}
	return fullUrl
}

// newRequest returns a request carrying the client's standard headers.
func (client *restClient) newRequest(method, targetUrl string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, targetUrl, body)
	if err != nil {
		return nil, err
	}
	for name, value := range client.headers {
		req.Header.Set(name, value)
	}
	if client.apiUser != "" && client.apiKey != "" {
		req.SetBasicAuth(client.apiUser, client.apiKey)
	}
	req.Header.Add("Connection", "Keep-Alive")
	return req, nil
}

func (client *restClient) _doRequest(resp *Response, request *http.Request) {
	resp.Request = request

	// Issue the HTTP request
	resp.Response, resp.Error = client.httpClient.Do(request)
	if resp.Error != nil {
		return
	}

	// Read the response data and close the response body.
	// That's the only way to close the remote HTTP connection,
	// which will otherwise stay open indefinitely, causing
	// the system to eventually have too many open files.
	// If there's an error reading the response body, it will
	// be recorded in resp.Error.
	resp.readResponse()
}
