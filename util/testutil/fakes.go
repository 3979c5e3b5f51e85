package testutil

import (
	"fmt"
	"github.com/APTrust/ingest/models"
	"io/ioutil"
	"sync"
)

// FakeIdAllocator hands out consecutive ids starting at a fixed
// value and records every range requested.
type FakeIdAllocator struct {
	Err error

	mutex    sync.Mutex
	next     int64
	requests []int
}

func NewFakeIdAllocator(start int64) *FakeIdAllocator {
	return &FakeIdAllocator{next: start, requests: make([]int, 0)}
}

func (allocator *FakeIdAllocator) GetUniqueId(idRange int, mode string) (int64, error) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	allocator.requests = append(allocator.requests, idRange)
	if allocator.Err != nil {
		return 0, allocator.Err
	}
	start := allocator.next
	allocator.next += int64(idRange)
	return start, nil
}

// Requests returns the size of every range requested so far.
func (allocator *FakeIdAllocator) Requests() []int {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	return append([]int{}, allocator.requests...)
}

// RecordingArchive keeps the content of every file placed in memory
// and leaves the source file alone. Set FailOnCall to n to fail the
// nth Place call.
type RecordingArchive struct {
	FailOnCall int

	mutex   sync.Mutex
	calls   int
	order   []int64
	content map[int64]string
}

func NewRecordingArchive() *RecordingArchive {
	return &RecordingArchive{
		order:   make([]int64, 0),
		content: make(map[int64]string),
	}
}

func (archive *RecordingArchive) Place(fileId int64, localPath string) error {
	archive.mutex.Lock()
	defer archive.mutex.Unlock()
	archive.calls++
	if archive.FailOnCall > 0 && archive.calls == archive.FailOnCall {
		return fmt.Errorf("archive refused file %d", fileId)
	}
	data, err := ioutil.ReadFile(localPath)
	if err != nil {
		return err
	}
	archive.order = append(archive.order, fileId)
	archive.content[fileId] = string(data)
	return nil
}

// Placed returns the ids placed, in order.
func (archive *RecordingArchive) Placed() []int64 {
	archive.mutex.Lock()
	defer archive.mutex.Unlock()
	return append([]int64{}, archive.order...)
}

// Content returns what was placed under fileId.
func (archive *RecordingArchive) Content(fileId int64) (string, bool) {
	archive.mutex.Lock()
	defer archive.mutex.Unlock()
	content, ok := archive.content[fileId]
	return content, ok
}

// FakePublisher records what it was asked to publish.
type FakePublisher struct {
	Err error

	mutex     sync.Mutex
	manifests []models.Manifest
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{manifests: make([]models.Manifest, 0)}
}

func (publisher *FakePublisher) Publish(session *models.Session, manifest models.Manifest) ([]string, error) {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	publisher.manifests = append(publisher.manifests, manifest)
	if publisher.Err != nil {
		return nil, publisher.Err
	}
	return []string{fmt.Sprintf("node-%d", len(publisher.manifests))}, nil
}

// Calls returns the number of Publish calls.
func (publisher *FakePublisher) Calls() int {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	return len(publisher.manifests)
}

// Manifests returns the manifest passed to each Publish call.
func (publisher *FakePublisher) Manifests() []models.Manifest {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	return append([]models.Manifest{}, publisher.manifests...)
}

// Backend has the same methods as filexfer.Backend.
type Backend interface {
	GenerateCredentials(session *models.Session) (string, error)
	Provision(session *models.Session) error
	Deprovision(session *models.Session) error
	CollectAndPlace(session *models.Session) (models.Manifest, error)
}

// CountingBackend wraps a real backend, counting calls per session
// and optionally failing or panicking in place of the real call.
type CountingBackend struct {
	Backend

	ProvisionErr   error
	DeprovisionErr error
	PanicOnCollect bool

	mutex  sync.Mutex
	counts map[string]int
}

func NewCountingBackend(backend Backend) *CountingBackend {
	return &CountingBackend{Backend: backend, counts: make(map[string]int)}
}

func (backend *CountingBackend) Provision(session *models.Session) error {
	backend.count("provision", session)
	if backend.ProvisionErr != nil {
		return backend.ProvisionErr
	}
	return backend.Backend.Provision(session)
}

func (backend *CountingBackend) Deprovision(session *models.Session) error {
	backend.count("deprovision", session)
	if backend.DeprovisionErr != nil {
		return backend.DeprovisionErr
	}
	return backend.Backend.Deprovision(session)
}

func (backend *CountingBackend) CollectAndPlace(session *models.Session) (models.Manifest, error) {
	backend.count("collect", session)
	if backend.PanicOnCollect {
		panic(fmt.Sprintf("collect panicked for session %s", session.Id))
	}
	return backend.Backend.CollectAndPlace(session)
}

func (backend *CountingBackend) count(operation string, session *models.Session) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	backend.counts[operation+":"+session.Id]++
}

// Count returns how many times operation ("provision", "deprovision"
// or "collect") was called for sessionId.
func (backend *CountingBackend) Count(operation, sessionId string) int {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	return backend.counts[operation+":"+sessionId]
}
