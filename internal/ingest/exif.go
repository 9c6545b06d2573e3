package ingest

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// UnknownValue is the sentinel stored for every metadata field when an image
// carries no parseable EXIF segment at all. Individually absent tags stay
// nil and become NULL in the database.
const UnknownValue = "Unknown"

// Metadata holds the EXIF attributes extracted from one image. Every field
// is optional -- EXIF may be partially or fully absent.
type Metadata struct {
	CameraMake   *string
	CameraModel  *string
	LensModel    *string
	ISO          *string
	Aperture     *string
	ShutterSpeed *string
	FocalLength  *string
	LightSource  *string
	DateCreated  *string
}

// UnknownMetadata returns a Metadata with every field set to the sentinel.
// Used by the orchestrator when extraction fails wholesale, so the database
// row never carries NULLs in that path.
func UnknownMetadata() Metadata {
	unknown := func() *string {
		s := UnknownValue
		return &s
	}
	return Metadata{
		CameraMake:   unknown(),
		CameraModel:  unknown(),
		LensModel:    unknown(),
		ISO:          unknown(),
		Aperture:     unknown(),
		ShutterSpeed: unknown(),
		FocalLength:  unknown(),
		LightSource:  unknown(),
		DateCreated:  unknown(),
	}
}

// ExtractMetadata parses EXIF metadata from raw image bytes, best effort.
// Returns ok=false when the image has no parseable EXIF segment; individual
// missing tags leave their field nil while the rest are retained. It never
// returns an error -- missing metadata is an ordinary condition.
func ExtractMetadata(data []byte) (meta Metadata, ok bool) {
	// goexif is known to panic on some malformed TIFF structures; treat a
	// panic the same as a parse failure.
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("exif parser panicked on malformed input", slog.Any("panic", r))
			meta, ok = Metadata{}, false
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, false
	}

	meta = Metadata{
		CameraMake:   tagString(x, exif.Make),
		CameraModel:  tagString(x, exif.Model),
		LensModel:    tagString(x, exif.LensModel),
		ISO:          tagInt(x, exif.ISOSpeedRatings),
		Aperture:     tagAperture(x),
		ShutterSpeed: tagShutterSpeed(x),
		FocalLength:  tagFocalLength(x),
		LightSource:  tagInt(x, exif.LightSource),
		DateCreated:  tagDateCreated(x),
	}
	return meta, true
}

// tagString reads a string-valued tag, nil when absent or empty.
func tagString(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		s = strings.Trim(tag.String(), `"`)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// tagInt reads an integer-valued tag as its decimal string, nil when absent.
func tagInt(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	v, err := tag.Int(0)
	if err != nil {
		return nil
	}
	s := strconv.Itoa(v)
	return &s
}

// tagAperture formats FNumber as "f/2.8".
func tagAperture(x *exif.Exif) *string {
	num, den, ok := rational(x, exif.FNumber)
	if !ok {
		return nil
	}
	s := "f/" + strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
	return &s
}

// tagShutterSpeed formats ExposureTime as "1/250 s" for fractional
// exposures and "2 s" for long ones.
func tagShutterSpeed(x *exif.Exif) *string {
	num, den, ok := rational(x, exif.ExposureTime)
	if !ok {
		return nil
	}
	var s string
	if num < den {
		s = fmt.Sprintf("%d/%d s", num, den)
	} else {
		s = strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64) + " s"
	}
	return &s
}

// tagFocalLength formats FocalLength as "50 mm".
func tagFocalLength(x *exif.Exif) *string {
	num, den, ok := rational(x, exif.FocalLength)
	if !ok {
		return nil
	}
	s := strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64) + " mm"
	return &s
}

// tagDateCreated reads the capture date, preferring DateTimeOriginal and
// falling back to DateTime, then DateTimeDigitized.
func tagDateCreated(x *exif.Exif) *string {
	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime, exif.DateTimeDigitized} {
		if s := tagString(x, name); s != nil {
			return s
		}
	}
	return nil
}

// rational reads the first rational value of a tag. ok is false when the
// tag is absent, malformed, or has a zero denominator.
func rational(x *exif.Exif, name exif.FieldName) (num, den int64, ok bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, 0, false
	}
	num, den, err = tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, 0, false
	}
	return num, den, true
}
