package models

import (
	"encoding/json"
	"time"
)

// ManifestEntry describes one file moved from a staging area into
// the archive. HashSum covers only the first TransferSize bytes of
// the file.
type ManifestEntry struct {
	Id       int64     `json:"_id"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	HashType string    `json:"hashtype"`
	HashSum  string    `json:"hashsum"`
	MimeType string    `json:"mimetype"`
	ModTime  time.Time `json:"mtime"`
}

// Manifest lists the files of one commit in the order they were placed.
type Manifest []*ManifestEntry

// TotalSize returns the sum of all file sizes in bytes.
func (manifest Manifest) TotalSize() int64 {
	total := int64(0)
	for _, entry := range manifest {
		total += entry.Size
	}
	return total
}

// Ids returns the archive ids in manifest order.
func (manifest Manifest) Ids() []int64 {
	ids := make([]int64, len(manifest))
	for i, entry := range manifest {
		ids[i] = entry.Id
	}
	return ids
}

func (manifest Manifest) ToJson() (string, error) {
	if manifest == nil {
		manifest = Manifest{}
	}
	bytes, err := json.Marshal(manifest)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
