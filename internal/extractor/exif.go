package extractor

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"image-compressor-go/internal/compressor"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

// EXIFExtractor reads image dimensions and EXIF metadata.
type EXIFExtractor struct {
	logger *logrus.Logger
}

// NewEXIFExtractor returns a new EXIFExtractor.
func NewEXIFExtractor(logger *logrus.Logger) *EXIFExtractor {
	return &EXIFExtractor{logger: logger}
}

// Extract returns format, dimensions and, when present, EXIF fields of an image.
// Missing or unreadable EXIF data is not an error.
func (e *EXIFExtractor) Extract(filePath string) (*ImageInfo, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	info := &ImageInfo{
		Path:    filePath,
		Format:  format,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Size:    fileInfo.Size(),
		ModTime: fileInfo.ModTime(),
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}
	exifInfo, err := e.readEXIF(file)
	if err != nil {
		e.logger.Debugf("No EXIF data in %s: %v", filePath, err)
	} else {
		info.EXIF = exifInfo
	}

	return info, nil
}

// SupportsFile reports whether the file is supported by this extractor.
func (e *EXIFExtractor) SupportsFile(filePath string) bool {
	return compressor.IsSupported(filePath)
}

// readEXIF extracts fields using the rwcarlsen/goexif library.
func (e *EXIFExtractor) readEXIF(r io.Reader) (*EXIFInfo, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF: %w", err)
	}

	info := &EXIFInfo{
		Make:     stringTag(x, exif.Make),
		Model:    stringTag(x, exif.Model),
		Software: stringTag(x, exif.Software),
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			info.Orientation = v
		}
	}

	if tm, err := x.DateTime(); err == nil {
		info.DateTime = &tm
		info.DateSource = DateSourceEXIFDateTime
		return info, nil
	}

	if date := e.parseEXIFDateTime(stringTag(x, exif.DateTimeOriginal)); date != nil {
		info.DateTime = date
		info.DateSource = DateSourceEXIFDateTimeOriginal
		return info, nil
	}

	if date := e.parseEXIFDateTime(stringTag(x, exif.DateTimeDigitized)); date != nil {
		info.DateTime = date
		info.DateSource = DateSourceEXIFDateTimeDigitized
	}

	return info, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	val, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return val
}

// parseEXIFDateTime parses an EXIF date time string and returns a time.Time pointer.
// Returns nil if parsing fails.
func (e *EXIFExtractor) parseEXIFDateTime(dateStr string) *time.Time {
	if dateStr == "" {
		return nil
	}

	formats := []string{
		"2006:01:02 15:04:05",
		"2006-01-02 15:04:05",
		"2006:01:02",
		"2006-01-02",
		time.RFC3339,
	}

	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return &date
		}
	}

	e.logger.Debugf("Failed to parse date string: %s", dateStr)
	return nil
}
