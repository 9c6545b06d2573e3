package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ImageRecord is the metadata row persisted for one stored image.
type ImageRecord struct {
	Filename string
	FileSize int64
	Meta     Metadata
}

// Upload is one file from a batch upload request.
type Upload struct {
	Filename string
	Data     []byte
}

// MetadataStore persists image rows and derived album metadata. Implemented
// by the album repository.
type MetadataStore interface {
	// InsertImage stores the image row and increments the album's image
	// count, returning the new row's id.
	InsertImage(ctx context.Context, albumID int64, img ImageRecord) (int64, error)
	// RefreshAlbumMetadata recomputes the album's aggregated camera, lens
	// and aperture values from its current images.
	RefreshAlbumMetadata(ctx context.Context, albumID int64) error
}

// Ingestor runs the upload pipeline: per image it extracts metadata, stores
// the original, transcodes the derived variants and records the row. Images
// are processed concurrently and independently; one bad file never sinks
// the batch.
type Ingestor struct {
	store      *Store
	transcoder *Transcoder
	meta       MetadataStore
}

func NewIngestor(store *Store, transcoder *Transcoder, meta MetadataStore) *Ingestor {
	return &Ingestor{store: store, transcoder: transcoder, meta: meta}
}

// Ingest processes a batch of uploads for an album and returns how many
// succeeded. Per-image failures are logged and skipped; only a failure to
// create the album directory aborts the batch. Album metadata is refreshed
// once after the whole batch settles.
func (in *Ingestor) Ingest(ctx context.Context, albumID int64, uploads []Upload) (int, error) {
	if err := in.store.CreateAlbumDir(albumID); err != nil {
		return 0, err
	}

	var (
		wg    sync.WaitGroup
		saved atomic.Int64
	)
	for _, up := range uploads {
		wg.Add(1)
		go func(up Upload) {
			defer wg.Done()
			if err := in.ingestOne(ctx, albumID, up); err != nil {
				slog.Error("failed to ingest image",
					slog.Int64("album_id", albumID),
					slog.String("filename", up.Filename),
					slog.Any("error", err),
				)
				return
			}
			saved.Add(1)
		}(up)
	}
	wg.Wait()

	if err := in.meta.RefreshAlbumMetadata(ctx, albumID); err != nil {
		slog.Error("failed to refresh album metadata",
			slog.Int64("album_id", albumID),
			slog.Any("error", err),
		)
	}

	return int(saved.Load()), nil
}

// ingestOne runs the pipeline for a single upload. On any failure after the
// first file write, files already stored for this image are removed so a
// failed image leaves no orphans on disk.
func (in *Ingestor) ingestOne(ctx context.Context, albumID int64, up Upload) (err error) {
	filename := UniqueFilename(up.Filename)

	defer func() {
		if err != nil {
			in.store.DeleteImageFiles(albumID, filename)
		}
	}()

	meta, ok := ExtractMetadata(up.Data)
	if !ok {
		meta = UnknownMetadata()
	}

	if err = in.store.SaveImage(albumID, QualityFull, filename, up.Data); err != nil {
		return err
	}

	processed, err := in.transcoder.Process(ctx, up.Data)
	if err != nil {
		return fmt.Errorf("transcoding image: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		return in.store.SaveImage(albumID, QualityOptimized, filename, processed.Optimized)
	})
	g.Go(func() error {
		return in.store.SaveImage(albumID, QualityThumbnail, filename, processed.Thumbnail)
	})
	if err = g.Wait(); err != nil {
		return err
	}

	record := ImageRecord{
		Filename: filename,
		FileSize: int64(processed.OriginalSize),
		Meta:     meta,
	}
	if _, err = in.meta.InsertImage(ctx, albumID, record); err != nil {
		return fmt.Errorf("recording image: %w", err)
	}
	return nil
}
