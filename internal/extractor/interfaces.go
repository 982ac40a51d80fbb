package extractor

import (
	"time"
)

// InfoExtractor is the interface for reading image information from files.
type InfoExtractor interface {
	Extract(filePath string) (*ImageInfo, error)
	SupportsFile(filePath string) bool
}

// ImageInfo describes an image file without decoding its pixels.
type ImageInfo struct {
	Path    string
	Format  string
	Width   int
	Height  int
	Size    int64
	ModTime time.Time
	EXIF    *EXIFInfo
}

// EXIFInfo holds the EXIF fields shown by the inspect command.
type EXIFInfo struct {
	DateTime    *time.Time
	DateSource  DateSource
	Make        string
	Model       string
	Software    string
	Orientation int
}

// DateSource represents the EXIF tag the date was read from.
type DateSource int

const (
	DateSourceUnknown DateSource = iota
	DateSourceEXIFDateTime
	DateSourceEXIFDateTimeOriginal
	DateSourceEXIFDateTimeDigitized
)

// String returns a human-readable description of the date source.
func (ds DateSource) String() string {
	switch ds {
	case DateSourceEXIFDateTime:
		return "EXIF DateTime"
	case DateSourceEXIFDateTimeOriginal:
		return "EXIF DateTimeOriginal"
	case DateSourceEXIFDateTimeDigitized:
		return "EXIF DateTimeDigitized"
	default:
		return "Unknown"
	}
}

// LongerSide returns the larger of width and height.
func (i *ImageInfo) LongerSide() int {
	return max(i.Width, i.Height)
}
