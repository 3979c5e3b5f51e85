package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystemIterator walks the regular files under a directory in
// lexical order. The file list is fixed when the iterator is created.
type FileSystemIterator struct {
	rootDir string
	files   []string
	index   int
}

func NewFileSystemIterator(pathToDir string) (*FileSystemIterator, error) {
	if !filepath.IsAbs(pathToDir) {
		return nil, fmt.Errorf("Path '%s' must be absolute.", pathToDir)
	}
	stat, err := os.Stat(pathToDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("Directory '%s' does not exist.", pathToDir)
	} else if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("Path '%s' is not a directory.", pathToDir)
	}
	files, err := RecursiveFileList(pathToDir)
	if err != nil {
		return nil, err
	}
	return &FileSystemIterator{
		rootDir: pathToDir,
		files:   files,
		index:   -1,
	}, nil
}

// Count returns the total number of files the iterator will return.
func (iter *FileSystemIterator) Count() int {
	return len(iter.files)
}

// Returns a FileSummary for the next file, or io.EOF after the last.
func (iter *FileSystemIterator) Next() (*FileSummary, error) {
	iter.index += 1
	if iter.index >= len(iter.files) {
		return nil, io.EOF
	}
	absPath := iter.files[iter.index]
	stat, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	relPath, err := filepath.Rel(iter.rootDir, absPath)
	if err != nil {
		return nil, err
	}
	return &FileSummary{
		RelPath: filepath.ToSlash(relPath),
		AbsPath: absPath,
		Mode:    stat.Mode(),
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
	}, nil
}
