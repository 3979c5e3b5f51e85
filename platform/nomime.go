// +build !magicmime

// GuessMimeType for builds without libmagic. It goes by file
// extension first, then by sniffing the first 512 bytes.
package platform

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var IsMagicMimeBuild = false

func GuessMimeType(absPath string) (mimeType string, err error) {
	if byExtension := mime.TypeByExtension(filepath.Ext(absPath)); byExtension != "" {
		return stripParams(byExtension), nil
	}
	file, err := os.Open(absPath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if n == 0 {
		return DefaultMimeType, nil
	}
	return stripParams(http.DetectContentType(buf[:n])), nil
}

func stripParams(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx > 0 {
		return strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}
