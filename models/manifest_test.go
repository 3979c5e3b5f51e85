package models_test

import (
	"encoding/json"
	"github.com/APTrust/ingest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func testManifest() models.Manifest {
	return models.Manifest{
		{Id: 7, Path: "a.txt", Size: 10, HashType: "sha256", HashSum: "aa"},
		{Id: 8, Path: "dir/b.txt", Size: 20, HashType: "sha256", HashSum: "bb"},
		{Id: 9, Path: "dir/c.txt", Size: 30, HashType: "sha256", HashSum: "cc"},
	}
}

func TestManifestTotalSize(t *testing.T) {
	assert.EqualValues(t, 60, testManifest().TotalSize())
	assert.EqualValues(t, 0, models.Manifest{}.TotalSize())
}

func TestManifestIds(t *testing.T) {
	assert.Equal(t, []int64{7, 8, 9}, testManifest().Ids())
}

func TestManifestToJson(t *testing.T) {
	data, err := testManifest().ToJson()
	require.Nil(t, err)
	var entries []map[string]interface{}
	require.Nil(t, json.Unmarshal([]byte(data), &entries))
	require.Equal(t, 3, len(entries))
	assert.EqualValues(t, 8, entries[1]["_id"])
	assert.Equal(t, "dir/b.txt", entries[1]["path"])
	assert.Equal(t, "bb", entries[1]["hashsum"])

	var nilManifest models.Manifest
	data, err = nilManifest.ToJson()
	require.Nil(t, err)
	assert.Equal(t, "[]", data)
}
