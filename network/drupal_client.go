package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/APTrust/ingest/constants"
	"net/http"
	"strings"
	"time"
)

// DrupalClient talks to a Drupal site's JSON:API module.
type DrupalClient struct {
	*restClient
}

// DrupalResource is a JSON:API resource object.
type DrupalResource struct {
	Type          string                 `json:"type"`
	Id            string                 `json:"id,omitempty"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	Relationships map[string]interface{} `json:"relationships,omitempty"`
}

// DisplayName returns the display_name attribute of user resources.
func (resource *DrupalResource) DisplayName() string {
	name, _ := resource.Attributes["display_name"].(string)
	return name
}

type drupalLink struct {
	Href string `json:"href"`
}

type drupalDocument struct {
	Data  json.RawMessage       `json:"data"`
	Links map[string]drupalLink `json:"links,omitempty"`
}

// DrupalResponse is a Response whose body is a JSON:API document.
type DrupalResponse struct {
	Response

	resources []*DrupalResource
	nextPage  string
}

// Resource returns the first resource in the response, or nil.
func (resp *DrupalResponse) Resource() *DrupalResource {
	if len(resp.resources) > 0 {
		return resp.resources[0]
	}
	return nil
}

// Resources returns all resources in the response.
func (resp *DrupalResponse) Resources() []*DrupalResource {
	return resp.resources
}

// NextPage returns the URL of the next page of a collection, or "".
func (resp *DrupalResponse) NextPage() string {
	return resp.nextPage
}

func (resp *DrupalResponse) parse() {
	if resp.Error != nil || len(resp.data) == 0 {
		return
	}
	doc := &drupalDocument{}
	if resp.Error = json.Unmarshal(resp.data, doc); resp.Error != nil {
		return
	}
	if next, ok := doc.Links["next"]; ok {
		resp.nextPage = next.Href
	}
	trimmed := bytes.TrimSpace(doc.Data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return
	}
	if trimmed[0] == '[' {
		resp.Error = json.Unmarshal(trimmed, &resp.resources)
		return
	}
	resource := &DrupalResource{}
	if resp.Error = json.Unmarshal(trimmed, resource); resp.Error == nil {
		resp.resources = []*DrupalResource{resource}
	}
}

// NewDrupalClient returns a client for the JSON:API root at hostUrl,
// e.g. http://example.com/jsonapi. Params headers are added to every
// request. If apiUser and apiKey are both set, requests use basic auth.
func NewDrupalClient(hostUrl string, timeout time.Duration, headers map[string]string, apiUser, apiKey string) *DrupalClient {
	client := &DrupalClient{restClient: newRestClient(hostUrl, timeout)}
	client.headers["Accept"] = constants.JsonApiMediaType
	client.headers["Content-Type"] = constants.JsonApiMediaType
	for name, value := range headers {
		client.headers[name] = value
	}
	client.apiUser = apiUser
	client.apiKey = apiKey
	return client
}

// UserList returns one page of user--user resources. Pass "" for
// the first page, or a previous response's NextPage().
func (client *DrupalClient) UserList(pageUrl string) *DrupalResponse {
	if pageUrl == "" {
		pageUrl = client.BuildUrl("/user/user", nil)
	}
	return client.send("GET", pageUrl, nil)
}

// FindUserByDisplayName walks the user collection looking for the
// user whose display_name is name. Returns nil and no error if there
// is no such user.
func (client *DrupalClient) FindUserByDisplayName(name string) (*DrupalResource, error) {
	pageUrl := ""
	for {
		resp := client.UserList(pageUrl)
		if resp.Error != nil {
			return nil, resp.Error
		}
		for _, user := range resp.Resources() {
			if user.DisplayName() == name {
				return user, nil
			}
		}
		if resp.NextPage() == "" || resp.NextPage() == pageUrl {
			return nil, nil
		}
		pageUrl = resp.NextPage()
	}
}

// NodeCreate posts a JSON:API document to /node/<bundle>. The
// response must be 2xx and contain the new resource's id.
func (client *DrupalClient) NodeCreate(bundle string, document []byte) *DrupalResponse {
	absUrl := client.BuildUrl(fmt.Sprintf("/node/%s", bundle), nil)
	resp := client.send("POST", absUrl, document)
	if resp.Error == nil && (resp.Resource() == nil || resp.Resource().Id == "") {
		resp.Error = fmt.Errorf("Catalog response to POST %s has no resource id", absUrl)
	}
	return resp
}

// NodeDelete removes the node with the given id from /node/<bundle>.
func (client *DrupalClient) NodeDelete(bundle, id string) *DrupalResponse {
	absUrl := client.BuildUrl(fmt.Sprintf("/node/%s/%s", bundle, id), nil)
	return client.send("DELETE", absUrl, nil)
}

func (client *DrupalClient) send(method, absUrl string, body []byte) *DrupalResponse {
	resp := &DrupalResponse{}
	var request *http.Request
	if body == nil {
		request, resp.Error = client.newRequest(method, absUrl, nil)
	} else {
		request, resp.Error = client.newRequest(method, absUrl, bytes.NewReader(body))
	}
	if resp.Error != nil {
		return resp
	}
	client._doRequest(&resp.Response, request)
	if resp.EnsureStatus() == nil {
		resp.parse()
	}
	return resp
}

// NodeBundle converts a JSON:API node type like "node--data-set" into
// the bundle used in its collection URL, "data_set".
func NodeBundle(resourceType string) (string, error) {
	parts := strings.SplitN(resourceType, "--", 2)
	if len(parts) != 2 || parts[0] != "node" || parts[1] == "" {
		return "", fmt.Errorf("'%s' is not a node resource type", resourceType)
	}
	return strings.Replace(parts[1], "-", "_", -1), nil
}

// NodeType converts a bundle name like "data_upload" into its
// JSON:API resource type, "node--data-upload".
func NodeType(bundle string) string {
	return "node--" + strings.Replace(bundle, "_", "-", -1)
}
