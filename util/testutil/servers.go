package testutil

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/ingest/constants"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// UniqueIdServer is a stand-in for the unique id service.
type UniqueIdServer struct {
	*httptest.Server

	mutex    sync.Mutex
	next     int64
	requests []int
}

func NewUniqueIdServer(start int64) *UniqueIdServer {
	idServer := &UniqueIdServer{next: start, requests: make([]int, 0)}
	idServer.Server = httptest.NewServer(http.HandlerFunc(idServer.handle))
	return idServer
}

func (idServer *UniqueIdServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/getid" {
		http.NotFound(w, r)
		return
	}
	idRange, err := strconv.Atoi(r.URL.Query().Get("range"))
	if err != nil || idRange < 1 {
		http.Error(w, "bad range", http.StatusBadRequest)
		return
	}
	idServer.mutex.Lock()
	start := idServer.next
	idServer.next += int64(idRange)
	idServer.requests = append(idServer.requests, idRange)
	idServer.mutex.Unlock()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"startIndex": %d, "endIndex": %d}`, start, start+int64(idRange)-1)
}

// Requests returns the size of every range requested.
func (idServer *UniqueIdServer) Requests() []int {
	idServer.mutex.Lock()
	defer idServer.mutex.Unlock()
	return append([]int{}, idServer.requests...)
}

// DrupalPost is one document posted to a DrupalServer.
type DrupalPost struct {
	Path     string
	Document map[string]interface{}
	Header   http.Header
}

// DrupalServer serves the parts of Drupal's JSON:API the metadata
// publisher uses: the user collection, node creation and node
// deletion. Users get the id "uuid-<display name>". Nodes get
// "node-<n>". POSTs to a path in RejectPaths get a 422.
type DrupalServer struct {
	*httptest.Server
	RejectPaths []string

	mutex   sync.Mutex
	users   []string
	posts   []DrupalPost
	deletes []string
}

func NewDrupalServer(users ...string) *DrupalServer {
	drupal := &DrupalServer{users: users, posts: make([]DrupalPost, 0), deletes: make([]string, 0)}
	drupal.Server = httptest.NewServer(http.HandlerFunc(drupal.handle))
	return drupal
}

// JsonApiURL returns the JSON:API root, for Metadata.DrupalURL.
func (drupal *DrupalServer) JsonApiURL() string {
	return drupal.URL + "/jsonapi"
}

func (drupal *DrupalServer) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", constants.JsonApiMediaType)
	switch {
	case r.Method == "GET" && r.URL.Path == "/jsonapi/user/user":
		data := make([]map[string]interface{}, len(drupal.users))
		for i, name := range drupal.users {
			data[i] = map[string]interface{}{
				"type":       "user--user",
				"id":         "uuid-" + name,
				"attributes": map[string]string{"display_name": name},
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	case r.Method == "DELETE" && strings.HasPrefix(r.URL.Path, "/jsonapi/node/"):
		drupal.mutex.Lock()
		drupal.deletes = append(drupal.deletes, r.URL.Path)
		drupal.mutex.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case r.Method == "POST" && drupal.rejects(r.URL.Path):
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"errors":[{"title":"Unprocessable Entity"}]}`)
	case r.Method == "POST" && strings.HasPrefix(r.URL.Path, "/jsonapi/node/"):
		body, _ := ioutil.ReadAll(r.Body)
		doc := make(map[string]interface{})
		if err := json.Unmarshal(body, &doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"errors":[{"title":"%s"}]}`, "Bad JSON")
			return
		}
		drupal.mutex.Lock()
		drupal.posts = append(drupal.posts, DrupalPost{Path: r.URL.Path, Document: doc, Header: r.Header})
		nodeId := fmt.Sprintf("node-%d", len(drupal.posts))
		drupal.mutex.Unlock()
		nodeType := "node--unknown"
		if data, ok := doc["data"].(map[string]interface{}); ok {
			nodeType, _ = data["type"].(string)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"type":"%s","id":"%s"}}`, nodeType, nodeId)
	default:
		http.NotFound(w, r)
	}
}

func (drupal *DrupalServer) rejects(path string) bool {
	for _, rejected := range drupal.RejectPaths {
		if rejected == path {
			return true
		}
	}
	return false
}

// Deletes returns the path of every DELETE, in order.
func (drupal *DrupalServer) Deletes() []string {
	drupal.mutex.Lock()
	defer drupal.mutex.Unlock()
	return append([]string{}, drupal.deletes...)
}

// Posts returns every document posted, in order.
func (drupal *DrupalServer) Posts() []DrupalPost {
	drupal.mutex.Lock()
	defer drupal.mutex.Unlock()
	return append([]DrupalPost{}, drupal.posts...)
}
