package fileutil_test

import (
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/util/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeTree(t *testing.T, files map[string]string) string {
	dir, err := ioutil.TempDir("", "fileutil_test")
	require.Nil(t, err)
	for name, content := range files {
		absPath := filepath.Join(dir, name)
		require.Nil(t, os.MkdirAll(filepath.Dir(absPath), 0755))
		require.Nil(t, ioutil.WriteFile(absPath, []byte(content), 0644))
	}
	return dir
}

func TestIngestHome(t *testing.T) {
	ingestHome := os.Getenv("INGEST_HOME")
	defer os.Setenv("INGEST_HOME", ingestHome)

	os.Setenv("INGEST_HOME", "/ingest_home")
	home, err := fileutil.IngestHome()
	require.Nil(t, err)
	assert.Equal(t, "/ingest_home", home)

	// Without INGEST_HOME we find the module root.
	os.Setenv("INGEST_HOME", "")
	home, err = fileutil.IngestHome()
	require.Nil(t, err)
	assert.True(t, fileutil.FileExists(filepath.Join(home, "go.mod")))
}

func TestRelativeToAbsPath(t *testing.T) {
	absPath, err := fileutil.RelativeToAbsPath("/already/absolute")
	require.Nil(t, err)
	assert.Equal(t, "/already/absolute", absPath)

	absPath, err = fileutil.RelativeToAbsPath(filepath.Join("config", "test.json"))
	require.Nil(t, err)
	assert.True(t, filepath.IsAbs(absPath))
	assert.True(t, fileutil.FileExists(absPath))
}

func TestLoadRelativeFile(t *testing.T) {
	data, err := fileutil.LoadRelativeFile(filepath.Join("config", "test.json"))
	require.Nil(t, err)
	assert.NotEmpty(t, data)
}

func TestFileExists(t *testing.T) {
	assert.True(t, fileutil.FileExists("fileutil_test.go"))
	assert.False(t, fileutil.FileExists("NonExistentFile.xyz"))
}

func TestExpandTilde(t *testing.T) {
	expanded, err := fileutil.ExpandTilde("~/tmp")
	require.Nil(t, err)
	assert.False(t, strings.Contains(expanded, "~"))
	assert.True(t, strings.HasSuffix(expanded, "/tmp"))

	expanded, err = fileutil.ExpandTilde("/nothing/to/expand")
	require.Nil(t, err)
	assert.Equal(t, "/nothing/to/expand", expanded)
}

func TestRecursiveFileList(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"b.txt":        "b",
		"a/z.txt":      "z",
		"a/deep/y.txt": "y",
	})
	defer os.RemoveAll(dir)
	require.Nil(t, os.Symlink(filepath.Join(dir, "b.txt"), filepath.Join(dir, "link.txt")))

	files, err := fileutil.RecursiveFileList(dir)
	require.Nil(t, err)
	require.Equal(t, 3, len(files))
	assert.Equal(t, filepath.Join(dir, "a", "deep", "y.txt"), files[0])
	assert.Equal(t, filepath.Join(dir, "a", "z.txt"), files[1])
	assert.Equal(t, filepath.Join(dir, "b.txt"), files[2])
}

func TestRecursiveFileListWalkOrder(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"a-b.txt": "ab",
		"a/x.txt": "x",
	})
	defer os.RemoveAll(dir)

	// A subfolder is listed before a sibling whose name extends the
	// folder name, which a plain string sort would put first.
	files, err := fileutil.RecursiveFileList(dir)
	require.Nil(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "x.txt"),
		filepath.Join(dir, "a-b.txt"),
	}, files)
}

func TestLooksSafeToDelete(t *testing.T) {
	assert.True(t, fileutil.LooksSafeToDelete("/mnt/apt/data/some_dir", 15, 3))
	assert.False(t, fileutil.LooksSafeToDelete("/usr/local", 15, 3))
}

func TestHashPrefix(t *testing.T) {
	dir := makeTree(t, map[string]string{
		"one.txt": "0123456789",
		"two.txt": "0123456789abcdef",
	})
	defer os.RemoveAll(dir)
	one := filepath.Join(dir, "one.txt")
	two := filepath.Join(dir, "two.txt")

	// Same first 10 bytes, so the same prefix digest.
	digestOne, err := fileutil.HashPrefix(one, constants.AlgSha256, 10)
	require.Nil(t, err)
	digestTwo, err := fileutil.HashPrefix(two, constants.AlgSha256, 10)
	require.Nil(t, err)
	assert.Equal(t, digestOne, digestTwo)
	assert.Equal(t, "84d89877f0d4041efb6bf91a16f0248f2fd573e6af05c19f96bedb9f882f7882", digestOne)

	// Whole file
	full, err := fileutil.HashPrefix(two, constants.AlgSha256, 0)
	require.Nil(t, err)
	assert.NotEqual(t, digestOne, full)

	md5Digest, err := fileutil.HashPrefix(one, constants.AlgMd5, 1024)
	require.Nil(t, err)
	assert.Equal(t, "781e5e245d69b566979b86e28d23f2c7", md5Digest)

	_, err = fileutil.HashPrefix(one, "crc32", 10)
	require.NotNil(t, err)
	assert.Equal(t, "Unsupported algorithm: crc32", err.Error())

	_, err = fileutil.HashPrefix(filepath.Join(dir, "missing"), constants.AlgSha256, 10)
	assert.NotNil(t, err)
}

func TestMoveFile(t *testing.T) {
	dir := makeTree(t, map[string]string{"src.txt": "payload"})
	defer os.RemoveAll(dir)
	src := filepath.Join(dir, "src.txt")
	dest := filepath.Join(dir, "archive", "d2", "file.4")

	require.Nil(t, fileutil.MoveFile(src, dest))
	assert.False(t, fileutil.FileExists(src))
	data, err := ioutil.ReadFile(dest)
	require.Nil(t, err)
	assert.Equal(t, "payload", string(data))

	assert.NotNil(t, fileutil.MoveFile(src, dest))
}
