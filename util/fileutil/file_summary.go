package fileutil

import (
	"os"
	"time"
)

// FileSummary describes one regular file found in a staging area.
// RelPath is relative to the directory being iterated and always
// uses forward slashes.
type FileSummary struct {
	RelPath string
	AbsPath string
	Mode    os.FileMode
	Size    int64
	ModTime time.Time
}
