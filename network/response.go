package network

import (
	"fmt"
	"io/ioutil"
	"net/http"
)

// Response wraps an HTTP exchange with one of our REST services.
// Error is set for transport failures and, through EnsureStatus,
// for unexpected status codes.
type Response struct {
	Request  *http.Request
	Response *http.Response
	Error    error

	hasBeenRead bool
	data        []byte
}

// Reads the body of an HTTP response object, closes the stream, and
// stores the bytes. The body MUST be closed, or you'll wind up
// with a lot of open network connections.
func (resp *Response) readResponse() {
	if !resp.hasBeenRead && resp.Response != nil && resp.Response.Body != nil {
		resp.data, resp.Error = ioutil.ReadAll(resp.Response.Body)
		resp.Response.Body.Close()
		resp.hasBeenRead = true
	}
}

// StatusCode returns the HTTP status, or zero if there was no response.
func (resp *Response) StatusCode() int {
	if resp.Response == nil {
		return 0
	}
	return resp.Response.StatusCode
}

// EnsureStatus sets resp.Error if the request succeeded at the
// transport level but the server did not answer with a 2xx status.
// It returns resp.Error.
func (resp *Response) EnsureStatus() error {
	if resp.Error != nil {
		return resp.Error
	}
	code := resp.StatusCode()
	if code < 200 || code > 299 {
		body := string(resp.data)
		if len(body) > MAX_ERR_MSG_SIZE {
			body = body[:MAX_ERR_MSG_SIZE]
		}
		method, target := "", ""
		if resp.Request != nil {
			method, target = resp.Request.Method, resp.Request.URL.String()
		}
		resp.Error = fmt.Errorf("%s %s returned status %d: %s", method, target, code, body)
	}
	return resp.Error
}
