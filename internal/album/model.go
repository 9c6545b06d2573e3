// Package album implements the gallery's albums and images: CRUD, batch
// image upload, and the aggregated shooting metadata shown on album pages.
package album

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateOnly is a calendar date without a time component. It maps to a DATE
// column and marshals as "2006-01-02" in JSON.
type DateOnly struct {
	time.Time
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (DateOnly, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return DateOnly{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DateOnly{t}, nil
}

// MarshalJSON renders the date as "2006-01-02".
func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

// UnmarshalJSON parses a "2006-01-02" string.
func (d *DateOnly) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner. The driver returns DATE columns as time.Time
// when parseTime is enabled.
func (d *DateOnly) Scan(value any) error {
	switch v := value.(type) {
	case time.Time:
		d.Time = v
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DateOnly", value)
	}
}

// Value implements driver.Valuer.
func (d DateOnly) Value() (driver.Value, error) {
	return d.Format(time.DateOnly), nil
}

// Album is a gallery album. The camera, lens and aperture fields are
// aggregates derived from the album's images: the most frequent non-null
// value each, recomputed whenever the image set changes.
type Album struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Date        DateOnly `json:"date"`
	NumImages   int      `json:"number_of_images"`
	CameraModel *string  `json:"camera_model"`
	LensModel   *string  `json:"lens_model"`
	Aperture    *string  `json:"aperture"`
}

// AlbumSummary is an Album plus its cover image for the gallery index. The
// cover is the album's oldest image by capture date; albums with no images
// yet have a nil cover.
type AlbumSummary struct {
	Album
	CoverImage *string `json:"cover_image"`
}

// AlbumRef is a lightweight reference to a neighboring album.
type AlbumRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AlbumDetail is the full album page payload: the album, its images, and
// the chronologically adjacent albums for prev/next navigation.
type AlbumDetail struct {
	Album
	Images   []Image   `json:"images"`
	Previous *AlbumRef `json:"previous_album"`
	Next     *AlbumRef `json:"next_album"`
}

// Image is one stored photograph. The EXIF fields are nullable; a NULL
// means the tag was absent from an otherwise readable EXIF block.
type Image struct {
	ID           int64   `json:"id"`
	AlbumID      int64   `json:"album_id"`
	FileName     string  `json:"file_name"`
	FileSize     int64   `json:"file_size"`
	CameraMake   *string `json:"camera_make"`
	CameraModel  *string `json:"camera_model"`
	LensModel    *string `json:"lens_model"`
	ISO          *string `json:"iso"`
	Aperture     *string `json:"aperture"`
	ShutterSpeed *string `json:"shutter_speed"`
	FocalLength  *string `json:"focal_length"`
	LightSource  *string `json:"light_source"`
	DateCreated  *string `json:"date_created"`
}

// CreateAlbumRequest is the POST /api/albums payload.
type CreateAlbumRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=255"`
	Description string `json:"description" form:"description" validate:"max=2000"`
	Date        string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
}

// UpdateAlbumRequest is the PUT /api/albums/:id payload. ImagesToDelete
// lists image ids to remove from the album as part of the edit.
type UpdateAlbumRequest struct {
	Name           string  `json:"name" form:"name" validate:"required,max=255"`
	Description    string  `json:"description" form:"description" validate:"max=2000"`
	Date           string  `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	ImagesToDelete []int64 `json:"images_to_delete" form:"images_to_delete"`
}

// UploadResult reports the outcome of a batch image upload.
type UploadResult struct {
	Received int `json:"received"`
	Saved    int `json:"saved"`
}

// AlbumWithUpload is the create/update response: the album plus the result
// of any image batch carried in the same request.
type AlbumWithUpload struct {
	Album
	Upload *UploadResult `json:"upload,omitempty"`
}
