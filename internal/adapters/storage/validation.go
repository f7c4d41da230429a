package storage

import "strings"

// AllowedContentTypes lists the MIME types stored as-is in the archive.
// Anything else is archived as an opaque byte stream.
var AllowedContentTypes = map[string]bool{
	// Images
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,

	// Documents
	"application/pdf":                                                          true,
	"application/msword":                                                       true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":  true,
	"application/vnd.ms-excel":                                                 true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":        true,
	"text/plain":                                                               true,
	"text/csv":                                                                 true,
}

// SafeContentType normalizes an upload's declared content type for storage,
// falling back to application/octet-stream when it is absent or not allowed.
func SafeContentType(contentType string) string {
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	if AllowedContentTypes[normalized] {
		return normalized
	}
	return "application/octet-stream"
}
