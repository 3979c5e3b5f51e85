package fileutil

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/util"
	"hash"
	"io"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
)

// IngestHome returns the absolute path to the ingest root directory,
// which contains source, config and test files. You can set this
// explicitly by defining an environment variable called INGEST_HOME.
// Otherwise, this walks up from the current working directory until
// it finds the directory containing go.mod. If neither works, this
// returns an error.
func IngestHome() (ingestHome string, err error) {
	ingestHome = os.Getenv("INGEST_HOME")
	if ingestHome != "" {
		return filepath.Abs(ingestHome)
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if FileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("Cannot determine ingest home because INGEST_HOME " +
		"is not set and no go.mod was found above the working directory.")
}

// LoadRelativeFile reads the file at the specified path
// relative to INGEST_HOME and returns the contents as a byte array.
func LoadRelativeFile(relativePath string) ([]byte, error) {
	absPath, err := RelativeToAbsPath(relativePath)
	if err != nil {
		return nil, err
	}
	return ioutil.ReadFile(absPath)
}

// Converts a relative path within the ingest directory tree
// to an absolute path.
func RelativeToAbsPath(relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return relativePath, nil
	}
	ingestHome, err := IngestHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(ingestHome, relativePath), nil
}

// Returns true if the file at path exists, false if not.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	if err != nil && os.IsNotExist(err) {
		return false
	}
	return true
}

// Expands the tilde in a directory path to the current
// user's home directory. For example, on Linux, ~/data
// would expand to something like /home/josie/data
func ExpandTilde(filePath string) (string, error) {
	if strings.Index(filePath, "~") < 0 {
		return filePath, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	homeDir := usr.HomeDir + "/"
	expandedDir := strings.Replace(filePath, "~/", homeDir, 1)
	return expandedDir, nil
}

// RecursiveFileList returns all regular files in
// dir and its subfolders. Directories, symlinks, sockets and other
// special files are skipped.
func RecursiveFileList(dir string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.Walk(dir, func(filePath string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.Mode().IsRegular() {
			files = append(files, filePath)
		}
		return nil
	})
	return files, err
}

// Returns true if the path specified by dir has at least minLength
// characters and at least minSeparators path separators. This is
// for testing paths you want pass into os.RemoveAll(), so you don't
// wind up deleting "/" or "/etc" or something catastrophic like that.
func LooksSafeToDelete(dir string, minLength, minSeparators int) bool {
	separator := string(os.PathSeparator)
	separatorCount := (len(dir) - len(strings.Replace(dir, separator, "", -1)))
	return len(dir) >= minLength && separatorCount >= minSeparators
}

// NewHash returns a hash.Hash for one of constants.ChecksumAlgorithms.
func NewHash(algorithm string) (hash.Hash, error) {
	if !util.StringListContains(constants.ChecksumAlgorithms, algorithm) {
		return nil, fmt.Errorf("Unsupported algorithm: %s", algorithm)
	}
	switch algorithm {
	case constants.AlgMd5:
		return md5.New(), nil
	case constants.AlgSha1:
		return sha1.New(), nil
	case constants.AlgSha512:
		return sha512.New(), nil
	}
	return sha256.New(), nil
}

// HashPrefix returns the hex digest of the first limit bytes of the
// file at pathToFile. Files shorter than limit are hashed in full.
// A limit of zero or less hashes the whole file.
func HashPrefix(pathToFile, algorithm string, limit int64) (string, error) {
	_hash, err := NewHash(algorithm)
	if err != nil {
		return "", err
	}
	inputFile, err := os.Open(pathToFile)
	if err != nil {
		return "", err
	}
	defer inputFile.Close()
	if limit > 0 {
		_, err = io.CopyN(_hash, inputFile, limit)
	} else {
		_, err = io.Copy(_hash, inputFile)
	}
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("Error reading %s: %v", pathToFile, err)
	}
	return fmt.Sprintf("%x", _hash.Sum(nil)), nil
}

// MoveFile renames src to dest, creating dest's parent directories.
// When src and dest are on different devices, the file is copied and
// src is removed.
func MoveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	err := os.Rename(src, dest)
	if linkErr, ok := err.(*os.LinkError); ok && linkErr.Err == syscall.EXDEV {
		return copyAndRemove(src, dest)
	}
	return err
}

func copyAndRemove(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	stat, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, stat.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	if err = os.Chtimes(dest, stat.ModTime(), stat.ModTime()); err != nil {
		return err
	}
	return os.Remove(src)
}
