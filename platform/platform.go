package platform

// DefaultMimeType is used when no better guess is available.
const DefaultMimeType = "application/octet-stream"
