package album

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dylan-B-D/photo-gallery/internal/apperror"
	"github.com/Dylan-B-D/photo-gallery/internal/ingest"
)

// --- Mock Repository ---

// mockAlbumRepo implements AlbumRepository for testing.
type mockAlbumRepo struct {
	createFn               func(ctx context.Context, name, description string, date DateOnly) (int64, error)
	updateFn               func(ctx context.Context, id int64, name, description string, date DateOnly) error
	deleteFn               func(ctx context.Context, id int64) error
	findByIDFn             func(ctx context.Context, id int64) (*Album, error)
	listFn                 func(ctx context.Context) ([]AlbumSummary, error)
	listImagesFn           func(ctx context.Context, albumID int64) ([]Image, error)
	findImageByIDFn        func(ctx context.Context, id int64) (*Image, error)
	deleteImageFn          func(ctx context.Context, id int64) error
	adjacentFn             func(ctx context.Context, id int64) (*AlbumRef, *AlbumRef, error)
	insertImageFn          func(ctx context.Context, albumID int64, img ingest.ImageRecord) (int64, error)
	refreshAlbumMetadataFn func(ctx context.Context, albumID int64) error
}

func (m *mockAlbumRepo) Create(ctx context.Context, name, description string, date DateOnly) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, description, date)
	}
	return 1, nil
}

func (m *mockAlbumRepo) Update(ctx context.Context, id int64, name, description string, date DateOnly) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, name, description, date)
	}
	return nil
}

func (m *mockAlbumRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockAlbumRepo) FindByID(ctx context.Context, id int64) (*Album, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &Album{ID: id, Name: "Test Album"}, nil
}

func (m *mockAlbumRepo) List(ctx context.Context) ([]AlbumSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAlbumRepo) ListImages(ctx context.Context, albumID int64) ([]Image, error) {
	if m.listImagesFn != nil {
		return m.listImagesFn(ctx, albumID)
	}
	return nil, nil
}

func (m *mockAlbumRepo) FindImageByID(ctx context.Context, id int64) (*Image, error) {
	if m.findImageByIDFn != nil {
		return m.findImageByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("image not found")
}

func (m *mockAlbumRepo) DeleteImage(ctx context.Context, id int64) error {
	if m.deleteImageFn != nil {
		return m.deleteImageFn(ctx, id)
	}
	return nil
}

func (m *mockAlbumRepo) Adjacent(ctx context.Context, id int64) (*AlbumRef, *AlbumRef, error) {
	if m.adjacentFn != nil {
		return m.adjacentFn(ctx, id)
	}
	return nil, nil, nil
}

func (m *mockAlbumRepo) InsertImage(ctx context.Context, albumID int64, img ingest.ImageRecord) (int64, error) {
	if m.insertImageFn != nil {
		return m.insertImageFn(ctx, albumID, img)
	}
	return 1, nil
}

func (m *mockAlbumRepo) RefreshAlbumMetadata(ctx context.Context, albumID int64) error {
	if m.refreshAlbumMetadataFn != nil {
		return m.refreshAlbumMetadataFn(ctx, albumID)
	}
	return nil
}

// --- Test Helpers ---

// newTestService creates an albumService with a mock repo and a real file
// store rooted in a temp dir.
func newTestService(t *testing.T, repo *mockAlbumRepo) (*albumService, *ingest.Store) {
	t.Helper()
	files := ingest.NewStore(t.TempDir())
	ingestor := ingest.NewIngestor(files, ingest.NewTranscoder(1), repo)
	return &albumService{repo: repo, files: files, ingestor: ingestor}, files
}

// testJPEG encodes a blank image for upload tests.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil); err != nil {
		t.Fatalf("encoding test jpeg: %v", err)
	}
	return buf.Bytes()
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Create Tests ---

func TestCreate_Success(t *testing.T) {
	var capturedName, capturedDesc string
	repo := &mockAlbumRepo{
		createFn: func(ctx context.Context, name, description string, date DateOnly) (int64, error) {
			capturedName = name
			capturedDesc = description
			return 42, nil
		},
		findByIDFn: func(ctx context.Context, id int64) (*Album, error) {
			return &Album{ID: id, Name: "Iceland"}, nil
		},
	}

	svc, _ := newTestService(t, repo)
	album, _, err := svc.Create(context.Background(), CreateAlbumRequest{
		Name:        "Iceland",
		Description: "Ring road trip",
		Date:        "2025-06-14",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if album.ID != 42 {
		t.Errorf("expected id 42, got %d", album.ID)
	}
	if capturedName != "Iceland" || capturedDesc != "Ring road trip" {
		t.Errorf("unexpected stored values: %q / %q", capturedName, capturedDesc)
	}
}

func TestCreate_WithUploads(t *testing.T) {
	repo := &mockAlbumRepo{
		createFn: func(ctx context.Context, name, description string, date DateOnly) (int64, error) {
			return 9, nil
		},
		findByIDFn: func(ctx context.Context, id int64) (*Album, error) {
			return &Album{ID: id, Name: "Trip", NumImages: 1}, nil
		},
	}

	svc, files := newTestService(t, repo)
	album, result, err := svc.Create(context.Background(), CreateAlbumRequest{
		Name: "Trip",
		Date: "2025-03-01",
	}, []ingest.Upload{{Filename: "a.jpg", Data: testJPEG(t, 64, 48)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if album.ID != 9 {
		t.Errorf("expected id 9, got %d", album.ID)
	}
	if result == nil || result.Received != 1 || result.Saved != 1 {
		t.Fatalf("result = %+v, want received 1 saved 1", result)
	}
	for _, q := range ingest.Qualities {
		entries, err := os.ReadDir(filepath.Join(files.Root(), "9", string(q)))
		if err != nil {
			t.Fatalf("reading %s dir: %v", q, err)
		}
		if len(entries) != 1 {
			t.Errorf("expected 1 file in %s, got %d", q, len(entries))
		}
	}
}

func TestCreate_StripsHTML(t *testing.T) {
	var capturedName string
	repo := &mockAlbumRepo{
		createFn: func(ctx context.Context, name, description string, date DateOnly) (int64, error) {
			capturedName = name
			return 1, nil
		},
	}

	svc, _ := newTestService(t, repo)
	_, _, err := svc.Create(context.Background(), CreateAlbumRequest{
		Name: "<script>alert(1)</script>Japan",
		Date: "2025-01-01",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedName != "Japan" {
		t.Errorf("expected sanitized name Japan, got %q", capturedName)
	}
}

func TestCreate_EmptyNameAfterSanitize(t *testing.T) {
	svc, _ := newTestService(t, &mockAlbumRepo{})
	_, _, err := svc.Create(context.Background(), CreateAlbumRequest{
		Name: "<b></b>",
		Date: "2025-01-01",
	}, nil)
	assertAppError(t, err, 422)
}

func TestCreate_InvalidDate(t *testing.T) {
	svc, _ := newTestService(t, &mockAlbumRepo{})
	_, _, err := svc.Create(context.Background(), CreateAlbumRequest{
		Name: "Album",
		Date: "14/06/2025",
	}, nil)
	assertAppError(t, err, 422)
}

func TestCreate_RepoError(t *testing.T) {
	repo := &mockAlbumRepo{
		createFn: func(ctx context.Context, name, description string, date DateOnly) (int64, error) {
			return 0, errors.New("db write error")
		},
	}
	svc, _ := newTestService(t, repo)
	_, _, err := svc.Create(context.Background(), CreateAlbumRequest{
		Name: "Album",
		Date: "2025-01-01",
	}, nil)
	assertAppError(t, err, 500)
}

// --- Get Tests ---

func TestGet_Success(t *testing.T) {
	prev := &AlbumRef{ID: 1, Name: "Earlier"}
	next := &AlbumRef{ID: 3, Name: "Later"}
	repo := &mockAlbumRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Album, error) {
			return &Album{ID: 2, Name: "Middle", NumImages: 2}, nil
		},
		listImagesFn: func(ctx context.Context, albumID int64) ([]Image, error) {
			return []Image{{ID: 10, AlbumID: 2}, {ID: 11, AlbumID: 2}}, nil
		},
		adjacentFn: func(ctx context.Context, id int64) (*AlbumRef, *AlbumRef, error) {
			return prev, next, nil
		},
	}

	svc, _ := newTestService(t, repo)
	detail, err := svc.Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detail.Images) != 2 {
		t.Errorf("expected 2 images, got %d", len(detail.Images))
	}
	if detail.Previous != prev || detail.Next != next {
		t.Error("expected adjacent albums to be passed through")
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockAlbumRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Album, error) {
			return nil, apperror.NewNotFound("album not found")
		},
	}
	svc, _ := newTestService(t, repo)
	_, err := svc.Get(context.Background(), 99)
	assertAppError(t, err, 404)
}

// --- Update Tests ---

func TestUpdate_DeletesMarkedImages(t *testing.T) {
	filename := "img.jpg"
	var deletedRows []int64
	repo := &mockAlbumRepo{
		findImageByIDFn: func(ctx context.Context, id int64) (*Image, error) {
			return &Image{ID: id, AlbumID: 5, FileName: filename}, nil
		},
		deleteImageFn: func(ctx context.Context, id int64) error {
			deletedRows = append(deletedRows, id)
			return nil
		},
	}

	svc, files := newTestService(t, repo)
	if err := files.CreateAlbumDir(5); err != nil {
		t.Fatalf("creating album dir: %v", err)
	}
	for _, q := range ingest.Qualities {
		if err := files.SaveImage(5, q, filename, []byte("x")); err != nil {
			t.Fatalf("saving %s: %v", q, err)
		}
	}

	_, _, err := svc.Update(context.Background(), 5, UpdateAlbumRequest{
		Name:           "Renamed",
		Date:           "2025-02-02",
		ImagesToDelete: []int64{10},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deletedRows) != 1 || deletedRows[0] != 10 {
		t.Errorf("expected image row 10 deleted, got %v", deletedRows)
	}
	for _, q := range ingest.Qualities {
		path := filepath.Join(files.Root(), "5", string(q), filename)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", path)
		}
	}
}

func TestUpdate_RejectsImageFromOtherAlbum(t *testing.T) {
	var deleted bool
	repo := &mockAlbumRepo{
		findImageByIDFn: func(ctx context.Context, id int64) (*Image, error) {
			return &Image{ID: id, AlbumID: 7, FileName: "other.jpg"}, nil
		},
		deleteImageFn: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}

	svc, _ := newTestService(t, repo)
	// The update itself succeeds; the foreign image is skipped and logged.
	_, _, err := svc.Update(context.Background(), 5, UpdateAlbumRequest{
		Name:           "Album",
		Date:           "2025-02-02",
		ImagesToDelete: []int64{10},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("image belonging to another album must not be deleted")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockAlbumRepo{
		updateFn: func(ctx context.Context, id int64, name, description string, date DateOnly) error {
			return apperror.NewNotFound("album not found")
		},
	}
	svc, _ := newTestService(t, repo)
	_, _, err := svc.Update(context.Background(), 99, UpdateAlbumRequest{
		Name: "Album",
		Date: "2025-02-02",
	}, nil)
	assertAppError(t, err, 404)
}

// --- Delete Tests ---

func TestDelete_RemovesFiles(t *testing.T) {
	repo := &mockAlbumRepo{}
	svc, files := newTestService(t, repo)
	if err := files.CreateAlbumDir(6); err != nil {
		t.Fatalf("creating album dir: %v", err)
	}

	if err := svc.Delete(context.Background(), 6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(files.Root(), "6")); !os.IsNotExist(err) {
		t.Error("expected album directory to be removed")
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockAlbumRepo{
		deleteFn: func(ctx context.Context, id int64) error {
			return apperror.NewNotFound("album not found")
		},
	}
	svc, _ := newTestService(t, repo)
	assertAppError(t, svc.Delete(context.Background(), 99), 404)
}

// --- Upload Tests ---

func TestUploadImages_EmptyBatch(t *testing.T) {
	svc, _ := newTestService(t, &mockAlbumRepo{})
	_, err := svc.UploadImages(context.Background(), 1, nil)
	assertAppError(t, err, 400)
}

func TestUploadImages_AlbumNotFound(t *testing.T) {
	repo := &mockAlbumRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Album, error) {
			return nil, apperror.NewNotFound("album not found")
		},
	}
	svc, _ := newTestService(t, repo)
	_, err := svc.UploadImages(context.Background(), 99, []ingest.Upload{
		{Filename: "a.jpg", Data: []byte("x")},
	})
	assertAppError(t, err, 404)
}

func TestUploadImages_ReportsPartialResult(t *testing.T) {
	repo := &mockAlbumRepo{}
	svc, _ := newTestService(t, repo)

	result, err := svc.UploadImages(context.Background(), 1, []ingest.Upload{
		{Filename: "bad.jpg", Data: []byte("not an image")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Received != 1 || result.Saved != 0 {
		t.Errorf("result = %+v, want received 1 saved 0", result)
	}
}

// --- DeleteImage Tests ---

func TestDeleteImage_RefreshesMetadata(t *testing.T) {
	var refreshed []int64
	repo := &mockAlbumRepo{
		findImageByIDFn: func(ctx context.Context, id int64) (*Image, error) {
			return &Image{ID: id, AlbumID: 8, FileName: "pic.jpg"}, nil
		},
		refreshAlbumMetadataFn: func(ctx context.Context, albumID int64) error {
			refreshed = append(refreshed, albumID)
			return nil
		},
	}

	svc, _ := newTestService(t, repo)
	if err := svc.DeleteImage(context.Background(), 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refreshed) != 1 || refreshed[0] != 8 {
		t.Errorf("expected metadata refresh for album 8, got %v", refreshed)
	}
}

func TestDeleteImage_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockAlbumRepo{})
	assertAppError(t, svc.DeleteImage(context.Background(), 99), 404)
}
