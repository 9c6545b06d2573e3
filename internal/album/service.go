package album

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dylan-B-D/photo-gallery/internal/apperror"
	"github.com/Dylan-B-D/photo-gallery/internal/ingest"
	"github.com/Dylan-B-D/photo-gallery/internal/sanitize"
)

// AlbumService handles business logic for albums and images. Create and
// Update accept an optional batch of uploads so one multipart request can
// carry both the album fields and its images.
type AlbumService interface {
	Create(ctx context.Context, req CreateAlbumRequest, uploads []ingest.Upload) (*Album, *UploadResult, error)
	Update(ctx context.Context, id int64, req UpdateAlbumRequest, uploads []ingest.Upload) (*Album, *UploadResult, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*AlbumDetail, error)
	List(ctx context.Context) ([]AlbumSummary, error)

	UploadImages(ctx context.Context, albumID int64, uploads []ingest.Upload) (*UploadResult, error)
	DeleteImage(ctx context.Context, imageID int64) error
}

// albumService implements AlbumService.
type albumService struct {
	repo     AlbumRepository
	files    *ingest.Store
	ingestor *ingest.Ingestor
}

// NewAlbumService creates a new album service.
func NewAlbumService(repo AlbumRepository, files *ingest.Store, ingestor *ingest.Ingestor) AlbumService {
	return &albumService{repo: repo, files: files, ingestor: ingestor}
}

// Create makes a new album and ingests its initial image batch, if any.
func (s *albumService) Create(ctx context.Context, req CreateAlbumRequest, uploads []ingest.Upload) (*Album, *UploadResult, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return nil, nil, apperror.NewValidation("album name is required")
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, nil, apperror.NewValidation("date must be in YYYY-MM-DD format")
	}

	id, err := s.repo.Create(ctx, name, sanitize.Text(req.Description), date)
	if err != nil {
		return nil, nil, apperror.NewInternal(err)
	}

	result, err := s.ingestUploads(ctx, id, uploads)
	if err != nil {
		// The album row survives a failed batch; the client can retry
		// the upload against the created album.
		return nil, nil, err
	}

	album, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return album, result, nil
}

// Update edits an album's fields, removes any images the request marks for
// deletion, and ingests any new uploads, then recomputes the album's
// aggregated metadata.
func (s *albumService) Update(ctx context.Context, id int64, req UpdateAlbumRequest, uploads []ingest.Upload) (*Album, *UploadResult, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return nil, nil, apperror.NewValidation("album name is required")
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, nil, apperror.NewValidation("date must be in YYYY-MM-DD format")
	}

	if err := s.repo.Update(ctx, id, name, sanitize.Text(req.Description), date); err != nil {
		return nil, nil, err
	}

	for _, imageID := range req.ImagesToDelete {
		if err := s.deleteImage(ctx, imageID, id); err != nil {
			// Keep going; a single failed removal should not abort the edit.
			slog.Error("failed to delete image during album update",
				slog.Int64("album_id", id),
				slog.Int64("image_id", imageID),
				slog.Any("error", err),
			)
		}
	}

	result, err := s.ingestUploads(ctx, id, uploads)
	if err != nil {
		return nil, nil, err
	}

	// Ingest refreshes metadata itself; deletions without new uploads
	// still need one.
	if result == nil && len(req.ImagesToDelete) > 0 {
		if err := s.repo.RefreshAlbumMetadata(ctx, id); err != nil {
			slog.Error("failed to refresh album metadata",
				slog.Int64("album_id", id),
				slog.Any("error", err),
			)
		}
	}

	album, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return album, result, nil
}

// ingestUploads runs the pipeline for a batch, returning nil for an empty one.
func (s *albumService) ingestUploads(ctx context.Context, albumID int64, uploads []ingest.Upload) (*UploadResult, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	saved, err := s.ingestor.Ingest(ctx, albumID, uploads)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &UploadResult{Received: len(uploads), Saved: saved}, nil
}

// Delete removes an album, its image rows, and its files on disk. The
// record goes first so a half-failed delete never leaves a live album
// pointing at missing files.
func (s *albumService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.files.DeleteAlbumDir(id); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

// Get returns an album with its images and prev/next navigation.
func (s *albumService) Get(ctx context.Context, id int64) (*AlbumDetail, error) {
	album, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	prev, next, err := s.repo.Adjacent(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &AlbumDetail{
		Album:    *album,
		Images:   images,
		Previous: prev,
		Next:     next,
	}, nil
}

// List returns all albums with covers, newest first.
func (s *albumService) List(ctx context.Context) ([]AlbumSummary, error) {
	albums, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return albums, nil
}

// UploadImages runs the ingest pipeline for a batch of uploads against an
// existing album.
func (s *albumService) UploadImages(ctx context.Context, albumID int64, uploads []ingest.Upload) (*UploadResult, error) {
	if len(uploads) == 0 {
		return nil, apperror.NewBadRequest("no images provided")
	}
	if _, err := s.repo.FindByID(ctx, albumID); err != nil {
		return nil, err
	}
	return s.ingestUploads(ctx, albumID, uploads)
}

// DeleteImage removes a single image and refreshes its album's metadata.
func (s *albumService) DeleteImage(ctx context.Context, imageID int64) error {
	img, err := s.repo.FindImageByID(ctx, imageID)
	if err != nil {
		return err
	}
	if err := s.deleteImage(ctx, imageID, img.AlbumID); err != nil {
		return err
	}
	if err := s.repo.RefreshAlbumMetadata(ctx, img.AlbumID); err != nil {
		slog.Error("failed to refresh album metadata",
			slog.Int64("album_id", img.AlbumID),
			slog.Any("error", err),
		)
	}
	return nil
}

// deleteImage removes one image's row and files. The row goes first; file
// removal failures are logged by the store but never orphan the database.
func (s *albumService) deleteImage(ctx context.Context, imageID, albumID int64) error {
	img, err := s.repo.FindImageByID(ctx, imageID)
	if err != nil {
		return err
	}
	if img.AlbumID != albumID {
		return apperror.NewBadRequest(fmt.Sprintf("image %d does not belong to album %d", imageID, albumID))
	}
	if err := s.repo.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	s.files.DeleteImageFiles(albumID, img.FileName)
	return nil
}
