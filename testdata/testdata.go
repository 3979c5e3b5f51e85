package testdata

import (
	"encoding/json"
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"github.com/icrowley/fake"
	"math/rand"
	"strings"
	"time"
)

func MakeSession() *models.Session {
	session := models.NewSession(RandomOwner(), fake.Sentence())
	session.Created = RandomDateTime()
	session.Updated = session.Created
	return session
}

// MakeSessionWithDocument returns a session with a catalog document
// of the given JSON:API node type.
func MakeSessionWithDocument(nodeType string) *models.Session {
	session := MakeSession()
	doc := map[string]interface{}{
		"data": map[string]interface{}{
			"type": nodeType,
			"attributes": map[string]interface{}{
				"title": fake.Words(),
				"body":  fake.Sentence(),
			},
		},
	}
	session.CatalogDocument, _ = json.Marshal(doc)
	return session
}

func MakeManifestEntry() *models.ManifestEntry {
	return &models.ManifestEntry{
		Id:       rand.Int63n(500000) + 1,
		Path:     RandomRelativePath(),
		Size:     rand.Int63n(5000000) + 1,
		HashType: RandomAlgorithm(),
		HashSum:  fmt.Sprintf("%x", rand.Int63()),
		MimeType: RandomMimeType(),
		ModTime:  RandomDateTime(),
	}
}

// MakeManifest returns count entries with consecutive ids.
func MakeManifest(count int) models.Manifest {
	manifest := make(models.Manifest, count)
	startId := rand.Int63n(500000) + 1
	for i := 0; i < count; i++ {
		manifest[i] = MakeManifestEntry()
		manifest[i].Id = startId + int64(i)
	}
	return manifest
}

func MakeCommitItem() *models.CommitItem {
	item := models.NewCommitItem(models.NewSession(RandomOwner(), "").Id, fake.Word())
	item.QueuedAt = RandomDateTime()
	return item
}

func MakeWorkSummary() *models.WorkSummary {
	return &models.WorkSummary{
		Attempted:  true,
		Errors:     []string{fake.Sentence()},
		StartedAt:  RandomDateTime(),
		FinishedAt: RandomDateTime(),
	}
}

func RandomDateTime() time.Time {
	t := time.Now().UTC()
	minutes := rand.Intn(500000) * -1
	return t.Add(time.Duration(minutes) * time.Minute)
}

func RandomOwner() string {
	return strings.ToLower(fake.UserName())
}

func RandomAlgorithm() string {
	return RandomFromList(constants.ChecksumAlgorithms)
}

func RandomMimeType() string {
	mimeTypes := []string{"text/plain", "application/xml", "image/jpeg",
		"application/octet-stream", "application/pdf"}
	return RandomFromList(mimeTypes)
}

func RandomRelativePath() string {
	return fmt.Sprintf("%s/%s/%s.%s", strings.ToLower(fake.Word()),
		strings.ToLower(fake.Word()), strings.ToLower(fake.Word()), RandomFromList([]string{"txt", "dat", "xml", "jpg"}))
}

func RandomFromList(items []string) string {
	index := rand.Intn(len(items))
	return items[index]
}
