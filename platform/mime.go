// +build magicmime

// This requires libmagic, which is not installed everywhere, so this
// file is only compiled with -tags=magicmime.
package platform

import (
	"fmt"
	"github.com/rakyll/magicmime"
	"regexp"
	"sync"
)

var IsMagicMimeBuild = true

// magicMime is the MimeMagic database. We want
// just one copy of this open at a time.
var magicMime *magicmime.Magic

// The underlying C library sometimes fails or returns unprintable
// characters when accessed by several goroutines at once, and commit
// workers run in parallel, so all calls go through this mutex.
var mutex = &sync.Mutex{}

var validMimeType = regexp.MustCompile(`^\w+/[\w\.\+\-]+$`)

func GuessMimeType(absPath string) (mimeType string, err error) {
	mutex.Lock()
	defer mutex.Unlock()

	// Open the Mime Magic DB only once.
	if magicMime == nil {
		magicMime, err = magicmime.New(magicmime.MAGIC_MIME_TYPE)
		if err != nil {
			return "", fmt.Errorf("Error opening MimeMagic database: %v", err)
		}
	}

	// MagicMime sometimes returns an empty string or garbage.
	// Default to application/octet-stream and use its answer only
	// if it looks legit.
	mimeType = DefaultMimeType
	guessedType, _ := magicMime.TypeByFile(absPath)
	if guessedType != "" && validMimeType.MatchString(guessedType) {
		mimeType = guessedType
	}
	return mimeType, nil
}
