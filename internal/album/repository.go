package album

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dylan-B-D/photo-gallery/internal/apperror"
	"github.com/Dylan-B-D/photo-gallery/internal/ingest"
)

// AlbumRepository defines the data access contract for albums and images.
// It also satisfies ingest.MetadataStore so the upload pipeline can record
// images through the same layer.
type AlbumRepository interface {
	Create(ctx context.Context, name, description string, date DateOnly) (int64, error)
	Update(ctx context.Context, id int64, name, description string, date DateOnly) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Album, error)
	List(ctx context.Context) ([]AlbumSummary, error)

	ListImages(ctx context.Context, albumID int64) ([]Image, error)
	FindImageByID(ctx context.Context, id int64) (*Image, error)
	DeleteImage(ctx context.Context, id int64) error

	// Adjacent returns the albums immediately before and after the given
	// album in date order. Either can be nil at the ends of the timeline.
	Adjacent(ctx context.Context, id int64) (prev, next *AlbumRef, err error)

	InsertImage(ctx context.Context, albumID int64, img ingest.ImageRecord) (int64, error)
	RefreshAlbumMetadata(ctx context.Context, albumID int64) error
}

// albumRepository implements AlbumRepository with MariaDB queries.
type albumRepository struct {
	db *sql.DB
}

// NewAlbumRepository creates a new album repository.
func NewAlbumRepository(db *sql.DB) AlbumRepository {
	return &albumRepository{db: db}
}

const albumColumns = `id, name, description, date, num_images, camera_model, lens_model, aperture`

// Create inserts a new album record.
func (r *albumRepository) Create(ctx context.Context, name, description string, date DateOnly) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO albums (name, description, date) VALUES (?, ?, ?)`,
		name, description, date,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting album: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted album id: %w", err)
	}
	return id, nil
}

// Update changes an album's editable fields.
func (r *albumRepository) Update(ctx context.Context, id int64, name, description string, date DateOnly) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE albums SET name = ?, description = ?, date = ? WHERE id = ?`,
		name, description, date, id,
	)
	if err != nil {
		return fmt.Errorf("updating album: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("album not found")
	}
	return nil
}

// Delete removes an album record. Image rows go with it via the foreign
// key's ON DELETE CASCADE.
func (r *albumRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting album: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("album not found")
	}
	return nil
}

// FindByID retrieves an album by id.
func (r *albumRepository) FindByID(ctx context.Context, id int64) (*Album, error) {
	a := &Album{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE id = ?`, id,
	).Scan(
		&a.ID, &a.Name, &a.Description, &a.Date,
		&a.NumImages, &a.CameraModel, &a.LensModel, &a.Aperture,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("album not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying album by id: %w", err)
	}
	return a, nil
}

// List returns all albums, newest first, each with its cover image. The
// cover is the image with the earliest capture date; missing capture dates
// sort last so a dated image always wins.
func (r *albumRepository) List(ctx context.Context) ([]AlbumSummary, error) {
	query := `SELECT a.id, a.name, a.description, a.date, a.num_images,
	                 a.camera_model, a.lens_model, a.aperture,
	                 (SELECT i.file_name FROM images i
	                  WHERE i.album_id = a.id
	                  ORDER BY i.date_created IS NULL, i.date_created ASC, i.id ASC
	                  LIMIT 1)
	          FROM albums a
	          ORDER BY a.date DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	defer rows.Close()

	var albums []AlbumSummary
	for rows.Next() {
		var a AlbumSummary
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &a.Date, &a.NumImages,
			&a.CameraModel, &a.LensModel, &a.Aperture, &a.CoverImage,
		); err != nil {
			return nil, fmt.Errorf("scanning album row: %w", err)
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

const imageColumns = `id, album_id, file_name, file_size, camera_make, camera_model,
	lens_model, iso, aperture, shutter_speed, focal_length, light_source, date_created`

// ListImages returns an album's images in capture order.
func (r *albumRepository) ListImages(ctx context.Context, albumID int64) ([]Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE album_id = ?
	          ORDER BY date_created IS NULL, date_created ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(
			&img.ID, &img.AlbumID, &img.FileName, &img.FileSize,
			&img.CameraMake, &img.CameraModel, &img.LensModel, &img.ISO,
			&img.Aperture, &img.ShutterSpeed, &img.FocalLength,
			&img.LightSource, &img.DateCreated,
		); err != nil {
			return nil, fmt.Errorf("scanning image row: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// FindImageByID retrieves an image by id.
func (r *albumRepository) FindImageByID(ctx context.Context, id int64) (*Image, error) {
	img := &Image{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = ?`, id,
	).Scan(
		&img.ID, &img.AlbumID, &img.FileName, &img.FileSize,
		&img.CameraMake, &img.CameraModel, &img.LensModel, &img.ISO,
		&img.Aperture, &img.ShutterSpeed, &img.FocalLength,
		&img.LightSource, &img.DateCreated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("image not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying image by id: %w", err)
	}
	return img, nil
}

// DeleteImage removes an image row and decrements its album's image count
// in one transaction.
func (r *albumRepository) DeleteImage(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var albumID int64
	err = tx.QueryRowContext(ctx, `SELECT album_id FROM images WHERE id = ?`, id).Scan(&albumID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NewNotFound("image not found")
	}
	if err != nil {
		return fmt.Errorf("querying image album: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE albums SET num_images = num_images - 1 WHERE id = ? AND num_images > 0`,
		albumID,
	); err != nil {
		return fmt.Errorf("decrementing album image count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing image delete: %w", err)
	}
	return nil
}

// Adjacent returns the albums chronologically before and after the given
// one. Ties on date break by id, so ordering is total and stable.
func (r *albumRepository) Adjacent(ctx context.Context, id int64) (*AlbumRef, *AlbumRef, error) {
	var date DateOnly
	err := r.db.QueryRowContext(ctx, `SELECT date FROM albums WHERE id = ?`, id).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, apperror.NewNotFound("album not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("querying album date: %w", err)
	}

	prev, err := r.neighbor(ctx,
		`SELECT id, name FROM albums
		 WHERE date < ? OR (date = ? AND id < ?)
		 ORDER BY date DESC, id DESC LIMIT 1`,
		date, date, id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("querying previous album: %w", err)
	}

	next, err := r.neighbor(ctx,
		`SELECT id, name FROM albums
		 WHERE date > ? OR (date = ? AND id > ?)
		 ORDER BY date ASC, id ASC LIMIT 1`,
		date, date, id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("querying next album: %w", err)
	}

	return prev, next, nil
}

func (r *albumRepository) neighbor(ctx context.Context, query string, args ...any) (*AlbumRef, error) {
	ref := &AlbumRef{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&ref.ID, &ref.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// InsertImage stores an image row and increments its album's image count in
// one transaction. Called by the upload pipeline.
func (r *albumRepository) InsertImage(ctx context.Context, albumID int64, img ingest.ImageRecord) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO images (album_id, file_name, file_size, camera_make, camera_model,
	          lens_model, iso, aperture, shutter_speed, focal_length, light_source, date_created)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query,
		albumID, img.Filename, img.FileSize,
		img.Meta.CameraMake, img.Meta.CameraModel, img.Meta.LensModel,
		img.Meta.ISO, img.Meta.Aperture, img.Meta.ShutterSpeed,
		img.Meta.FocalLength, img.Meta.LightSource, img.Meta.DateCreated,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted image id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE albums SET num_images = num_images + 1 WHERE id = ?`, albumID,
	); err != nil {
		return 0, fmt.Errorf("incrementing album image count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing image insert: %w", err)
	}
	return id, nil
}

// Static per-column aggregation queries. Each sets one album column to the
// most frequent non-null value among the album's images, or NULL when the
// album has no images with that field. Column names are fixed in the SQL
// text; only values are parameterized.
var refreshQueries = []string{
	`UPDATE albums SET camera_model = (
	    SELECT camera_model FROM images
	    WHERE album_id = ? AND camera_model IS NOT NULL
	    GROUP BY camera_model
	    ORDER BY COUNT(*) DESC, camera_model ASC LIMIT 1
	 ) WHERE id = ?`,
	`UPDATE albums SET lens_model = (
	    SELECT lens_model FROM images
	    WHERE album_id = ? AND lens_model IS NOT NULL
	    GROUP BY lens_model
	    ORDER BY COUNT(*) DESC, lens_model ASC LIMIT 1
	 ) WHERE id = ?`,
	`UPDATE albums SET aperture = (
	    SELECT aperture FROM images
	    WHERE album_id = ? AND aperture IS NOT NULL
	    GROUP BY aperture
	    ORDER BY COUNT(*) DESC, aperture ASC LIMIT 1
	 ) WHERE id = ?`,
}

// RefreshAlbumMetadata recomputes the album's aggregated camera, lens and
// aperture columns from its current images.
func (r *albumRepository) RefreshAlbumMetadata(ctx context.Context, albumID int64) error {
	for _, query := range refreshQueries {
		if _, err := r.db.ExecContext(ctx, query, albumID, albumID); err != nil {
			return fmt.Errorf("refreshing album metadata: %w", err)
		}
	}
	return nil
}
