// Package ingest implements the album ingestion pipeline: unique filename
// generation, EXIF extraction, multi-resolution transcoding, the on-disk
// uploads layout, and the orchestrator that runs a batch of uploaded images
// through all of it concurrently.
package ingest

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxExtensionLen caps how much of an uploaded extension is kept. Anything
// longer is garbage, not a file type.
const maxExtensionLen = 8

// UniqueFilename builds a collision-free storage name from an uploaded
// filename: a random UUID plus the original extension, "jpg" when no usable
// extension is present. The uploaded name is untrusted and never appears in
// the result beyond its extension characters.
func UniqueFilename(original string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(original), "."))
	if !validExtension(ext) {
		ext = "jpg"
	}
	return uuid.New().String() + "." + ext
}

// validExtension reports whether ext is a short, purely alphanumeric
// extension safe to embed in a storage path.
func validExtension(ext string) bool {
	if ext == "" || len(ext) > maxExtensionLen {
		return false
	}
	for _, r := range ext {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
