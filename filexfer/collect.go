package filexfer

import (
	"fmt"
	"github.com/APTrust/ingest/constants"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/platform"
	"github.com/APTrust/ingest/util/fileutil"
	"github.com/dustin/go-humanize"
	"io"
)

// collectAndPlace does the work of CollectAndPlace for every backend
// once the backend has found its staging directory.
//
// The whole id range is reserved up front, so a session's files get
// consecutive ids in walk order. Files are handled one at a time and
// progress is saved after each. The first error stops the walk. Files
// placed before it stay placed.
func collectAndPlace(deps *Deps, session *models.Session, stagingDir string) (models.Manifest, error) {
	manifest := make(models.Manifest, 0)
	limit, err := deps.Config.TransferSizeBytes()
	if err != nil {
		return manifest, err
	}
	iterator, err := fileutil.NewFileSystemIterator(stagingDir)
	if err != nil {
		return manifest, err
	}
	total := iterator.Count()
	if total == 0 {
		deps.Log.Info("Session %s has no files in %s", session.Id, stagingDir)
		return manifest, recordProgress(deps, session, 100)
	}

	startId, err := deps.IdAllocator.GetUniqueId(total, constants.IdModeFile)
	if err != nil {
		return manifest, fmt.Errorf("Cannot reserve %d file ids: %v", total, err)
	}
	deps.Log.Info("Session %s: placing %d files with ids %d-%d",
		session.Id, total, startId, startId+int64(total)-1)

	for i := 0; ; i++ {
		summary, err := iterator.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return manifest, err
		}
		fileId := startId + int64(i)
		entry, err := placeOne(deps, summary, fileId, limit)
		if err != nil {
			return manifest, fmt.Errorf("File %d of %d (%s): %v", i+1, total, summary.RelPath, err)
		}
		manifest = append(manifest, entry)
		deps.Log.Debug("Placed %s as %d (%s)", entry.Path, fileId, humanize.Bytes(uint64(entry.Size)))
		if err = recordProgress(deps, session, 100*float64(i+1)/float64(total)); err != nil {
			return manifest, err
		}
	}
	deps.Log.Info("Session %s: placed %d files, %s", session.Id, len(manifest),
		humanize.Bytes(uint64(manifest.TotalSize())))
	return manifest, nil
}

// placeOne hashes and describes the file before handing it to the
// archive, because some archive modes move the file away.
func placeOne(deps *Deps, summary *fileutil.FileSummary, fileId, limit int64) (*models.ManifestEntry, error) {
	hashType := deps.Config.Ingest.HashType
	digest, err := fileutil.HashPrefix(summary.AbsPath, hashType, limit)
	if err != nil {
		return nil, err
	}
	mimeType, err := platform.GuessMimeType(summary.AbsPath)
	if err != nil {
		mimeType = platform.DefaultMimeType
	}
	entry := &models.ManifestEntry{
		Id:       fileId,
		Path:     summary.RelPath,
		Size:     summary.Size,
		HashType: hashType,
		HashSum:  digest,
		MimeType: mimeType,
		ModTime:  summary.ModTime.UTC(),
	}
	if err = deps.Archive.Place(fileId, summary.AbsPath); err != nil {
		return nil, err
	}
	return entry, nil
}

func recordProgress(deps *Deps, session *models.Session, progress float64) error {
	if progress > session.Progress {
		session.Progress = progress
	}
	if deps.Progress == nil {
		return nil
	}
	return deps.Progress.SetProgress(session.Id, progress)
}
