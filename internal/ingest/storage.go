package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Quality names one of the stored renditions of an image. It doubles as the
// directory name under the album's upload directory.
type Quality string

const (
	QualityFull      Quality = "full"
	QualityOptimized Quality = "optimized"
	QualityThumbnail Quality = "thumbnail"
)

// Qualities lists every rendition in the order they are laid out on disk.
var Qualities = [...]Quality{QualityFull, QualityOptimized, QualityThumbnail}

// Store manages the on-disk upload tree:
//
//	<root>/<albumID>/<quality>/<filename>
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir. The root itself is created on
// first album directory creation, not here.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the upload root directory.
func (s *Store) Root() string {
	return s.root
}

// CreateAlbumDir ensures the per-quality directories exist for an album.
// Safe to call repeatedly.
func (s *Store) CreateAlbumDir(albumID int64) error {
	for _, q := range Qualities {
		if err := os.MkdirAll(s.qualityDir(albumID, q), 0o755); err != nil {
			return fmt.Errorf("creating album directory: %w", err)
		}
	}
	return nil
}

// SaveImage writes one rendition of an image. An existing file with the
// same name is overwritten.
func (s *Store) SaveImage(albumID int64, quality Quality, filename string, data []byte) error {
	path := filepath.Join(s.qualityDir(albumID, quality), filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s image: %w", quality, err)
	}
	return nil
}

// DeleteImageFiles removes every rendition of an image. Missing files are
// skipped; other removal errors are logged but never surfaced, so callers
// can use this for compensating cleanup without masking the original error.
func (s *Store) DeleteImageFiles(albumID int64, filename string) {
	for _, q := range Qualities {
		path := filepath.Join(s.qualityDir(albumID, q), filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove image file",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
	}
}

// DeleteAlbumDir removes an album's entire upload tree.
func (s *Store) DeleteAlbumDir(albumID int64) error {
	if err := os.RemoveAll(s.albumDir(albumID)); err != nil {
		return fmt.Errorf("removing album directory: %w", err)
	}
	return nil
}

func (s *Store) albumDir(albumID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(albumID, 10))
}

func (s *Store) qualityDir(albumID int64, q Quality) string {
	return filepath.Join(s.albumDir(albumID), string(q))
}
