// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// File upload constants
const (
	// MaxUploadSize is the maximum file upload size in bytes (100MB)
	MaxUploadSize = 100 << 20

	// UploadFormField is the multipart field carrying the image
	UploadFormField = "file"

	// ObjectsFormField is the optional comma separated label list sent with an upload
	ObjectsFormField = "objects"
)

// HTTP server constants
const (
	// RequestTimeout bounds a whole request, detection included
	RequestTimeout = 5 * time.Minute

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

// URL prefixes for files served back to clients
const (
	UploadsURLPrefix   = "/uploads/"
	ArtifactsURLPrefix = "/artifacts/"
)
