package compressor

import (
	"fmt"
)

const bytesPerMB = 1024 * 1024

// Megabytes converts a byte count to MiB for display.
func Megabytes(n int64) float64 {
	return float64(n) / bytesPerMB
}

func statusLine(res CompressionResult) string {
	switch res.Format {
	case FormatJPEG:
		return fmt.Sprintf("Compressed JPEG: %s -> %s (quality: %d)", res.InputPath, res.OutputPath, res.Quality)
	case FormatPNG:
		return fmt.Sprintf("Compressed PNG: %s -> %s (optimized)", res.InputPath, res.OutputPath)
	case FormatWebP:
		return fmt.Sprintf("Converted to WebP: %s -> %s (quality: %d)", res.InputPath, res.OutputPath, res.Quality)
	default:
		return fmt.Sprintf("Processed image (native %s format): %s -> %s", res.NativeFormat, res.InputPath, res.OutputPath)
	}
}

// SizeLine renders the before/after sizes of a successful result.
func SizeLine(res CompressionResult) string {
	return fmt.Sprintf("Original size: %.2f MB, compressed size: %.2f MB",
		Megabytes(res.OriginalSize), Megabytes(res.CompressedSize))
}

// ReductionLine renders the percentage reduction, or N/A for an empty original.
func ReductionLine(res CompressionResult) string {
	pct, ok := res.ReductionPercent()
	if !ok {
		return "Reduction: N/A"
	}
	return fmt.Sprintf("Reduction: %.2f%%", pct)
}
