package album

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Dylan-B-D/photo-gallery/internal/apperror"
	"github.com/Dylan-B-D/photo-gallery/internal/ingest"
)

// Handler handles HTTP requests for album and image operations.
type Handler struct {
	service AlbumService
}

// NewHandler creates a new album handler.
func NewHandler(service AlbumService) *Handler {
	return &Handler{service: service}
}

// List returns all albums with cover images (GET /api/albums).
func (h *Handler) List(c echo.Context) error {
	albums, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if albums == nil {
		albums = []AlbumSummary{}
	}
	return c.JSON(http.StatusOK, albums)
}

// Get returns one album with its images and navigation (GET /api/albums/:id).
func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if detail.Images == nil {
		detail.Images = []Image{}
	}
	return c.JSON(http.StatusOK, detail)
}

// Create makes a new album (POST /api/albums). The request may be JSON or
// a multipart form; multipart requests can carry the initial image batch
// in the "images" field.
func (h *Handler) Create(c echo.Context) error {
	var req CreateAlbumRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	uploads, err := formUploads(c)
	if err != nil {
		return err
	}

	album, result, err := h.service.Create(c.Request().Context(), req, uploads)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, AlbumWithUpload{Album: *album, Upload: result})
}

// Update edits an album, optionally deleting marked images and ingesting
// new ones (PUT /api/albums/:id).
func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateAlbumRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	uploads, err := formUploads(c)
	if err != nil {
		return err
	}

	album, result, err := h.service.Update(c.Request().Context(), id, req, uploads)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AlbumWithUpload{Album: *album, Upload: result})
}

// Delete removes an album, its images, and its files (DELETE /api/albums/:id).
func (h *Handler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// Upload ingests a batch of images into an album
// (POST /api/albums/:id/images). Files are read from the "images" multipart
// field. Responds 200 when every file saved, 207 on a partial batch.
func (h *Handler) Upload(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	uploads, err := formUploads(c)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		return apperror.NewBadRequest("no images provided")
	}

	result, err := h.service.UploadImages(c.Request().Context(), id, uploads)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.Saved < result.Received {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, result)
}

// DeleteImage removes a single image (DELETE /api/images/:id).
func (h *Handler) DeleteImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteImage(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// formUploads reads the "images" files from a multipart request. Returns
// nil without error for non-multipart requests or forms without images.
func formUploads(c echo.Context) ([]ingest.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File["images"]
	if len(files) == 0 {
		return nil, nil
	}

	uploads := make([]ingest.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		uploads = append(uploads, ingest.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewBadRequest("invalid " + name)
	}
	return id, nil
}

// readUpload reads one multipart file into memory.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
