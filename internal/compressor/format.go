package compressor

import (
	"path/filepath"
	"slices"
	"strings"
)

// Format is the target encoding selected from an output path.
type Format int

const (
	// FormatNative re-encodes in whatever format the source was decoded from.
	FormatNative Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
)

// SupportedExtensions lists the input extensions a batch dispatches to the compressor.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// String returns the display name of the format.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	case FormatWebP:
		return "WebP"
	default:
		return "native"
	}
}

// UsesQuality reports whether the encoder for f honours the quality setting.
func (f Format) UsesQuality() bool {
	return f == FormatJPEG || f == FormatWebP
}

// FormatFromPath maps the extension of path, case-insensitively, to a Format.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".png":
		return FormatPNG
	case ".webp":
		return FormatWebP
	default:
		return FormatNative
	}
}

// IsSupported reports whether name carries one of SupportedExtensions.
func IsSupported(name string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(name)))
}
