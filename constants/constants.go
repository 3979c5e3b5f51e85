// Common vars and constants, shared by the ingest services.
package constants

import (
	"regexp"
)

// SSHUsernamePattern matches the usernames the ssh transfer backend
// generates: 30 lowercase letters and digits.
var SSHUsernamePattern = regexp.MustCompile("^[a-z0-9]{30}$")

// SSHUsernameLength is the number of characters in a generated
// sftp username.
const SSHUsernameLength = 30

// SSHKeyBits is the size of the RSA keys generated for upload accounts.
const SSHKeyBits = 4096

// DefaultTransferSize is the number of leading bytes of each file
// that go into its manifest digest, unless the config says otherwise.
const DefaultTransferSize = "4 MiB"

// Transfer backends. These are the keys of filexfer.Backends.
const (
	BackendSSH   = "ssh"
	BackendLocal = "local"
)

var TransferBackends []string = []string{
	BackendSSH,
	BackendLocal,
}

// Archive placement modes. These are the keys of archive.Modes.
const (
	ArchiveEmbedded = "embedded"
	ArchiveHTTP     = "http"
	ArchiveS3       = "s3"
	ArchiveMinio    = "minio"
	ArchiveGCS      = "gcs"
)

var ArchiveModes []string = []string{
	ArchiveEmbedded,
	ArchiveHTTP,
	ArchiveS3,
	ArchiveMinio,
	ArchiveGCS,
}

// Metadata publishers. These are the keys of metaxfer.Publishers.
const (
	MetadataDrupalJSONAPI = "drupal_jsonapi"
	MetadataNone          = "none"
)

var MetadataTypes []string = []string{
	MetadataDrupalJSONAPI,
	MetadataNone,
}

// Digest algorithms for manifest entries.
const (
	AlgMd5    = "md5"
	AlgSha1   = "sha1"
	AlgSha256 = "sha256"
	AlgSha512 = "sha512"
)

var ChecksumAlgorithms = []string{AlgMd5, AlgSha1, AlgSha256, AlgSha512}

// IdModeFile is the mode we ask the unique id service for when
// allocating ids for archived files.
const IdModeFile = "file"

// Session states. These are derived from the processing and
// complete flags on a session and are never stored directly.
const (
	SessionIdle       = "Idle"
	SessionProcessing = "Processing"
	SessionSucceeded  = "Succeeded"
	SessionFailed     = "Failed"
)

// Commit work item states, as recorded in the commit journal.
const (
	CommitQueued  = "queued"
	CommitRunning = "running"
)

// Schema version of the session database.
const (
	SchemaMajorVersion = 1
	SchemaMinorVersion = 0
)

// JSON:API media type used by the Drupal catalog.
const JsonApiMediaType = "application/vnd.api+json"
