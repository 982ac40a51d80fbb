package statistics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"image-compressor-go/internal/compressor"
)

// Statistics contains all statistics for a compression run.
type Statistics struct {
	FilesCompressed int64
	FilesSkipped    int64
	FilesNotFound   int64
	FilesWithErrors int64

	BytesOriginal   int64
	BytesCompressed int64
	FilesResized    int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64

	Errors []StatError

	mutex sync.RWMutex

	FormatStats map[string]int64
}

// StatError represents an error that occurred during processing.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:   time.Now(),
		FormatStats: make(map[string]int64),
		Errors:      make([]StatError, 0),
	}
}

// ObserveResult records the outcome of one compression.
func (s *Statistics) ObserveResult(res compressor.CompressionResult) {
	switch res.Status {
	case compressor.StatusSuccess:
		atomic.AddInt64(&s.FilesCompressed, 1)
		atomic.AddInt64(&s.BytesOriginal, res.OriginalSize)
		atomic.AddInt64(&s.BytesCompressed, res.CompressedSize)
		if res.Width != res.SourceWidth || res.Height != res.SourceHeight {
			atomic.AddInt64(&s.FilesResized, 1)
		}
		s.incrementFormat(res.Format.String())
	case compressor.StatusNotFound:
		atomic.AddInt64(&s.FilesNotFound, 1)
		s.AddError(res.InputPath, "not_found", res.Message)
	default:
		atomic.AddInt64(&s.FilesWithErrors, 1)
		s.AddError(res.InputPath, "compress", res.Message)
	}
}

// ObserveSkip records a directory entry that was not dispatched.
func (s *Statistics) ObserveSkip(string) {
	atomic.AddInt64(&s.FilesSkipped, 1)
}

func (s *Statistics) incrementFormat(format string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.FormatStats[format]++
}

// AddError records an error that occurred during processing.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// Finalize calculates duration and throughput.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	processed := atomic.LoadInt64(&s.FilesCompressed) +
		atomic.LoadInt64(&s.FilesNotFound) +
		atomic.LoadInt64(&s.FilesWithErrors)
	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(processed) / s.Duration.Seconds()
	}
}

// TotalReductionPercent returns the aggregate reduction over successful files.
// The second value is false when nothing was compressed.
func (s *Statistics) TotalReductionPercent() (float64, bool) {
	orig := atomic.LoadInt64(&s.BytesOriginal)
	comp := atomic.LoadInt64(&s.BytesCompressed)
	if orig == 0 {
		return 0, false
	}
	return float64(orig-comp) / float64(orig) * 100, true
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	duration := s.Duration
	fps := s.FilesPerSecond
	s.mutex.RUnlock()

	reduction := "N/A"
	if pct, ok := s.TotalReductionPercent(); ok {
		reduction = fmt.Sprintf("%.2f%%", pct)
	}

	return fmt.Sprintf(`Image Compression Summary:

Files:
		Compressed: %d
		Resized: %d
		Skipped: %d
		Not Found: %d
		Errors: %d

Size:
		Original: %s
		Compressed: %s
		Reduction: %s

Performance:
		Duration: %v
		Files/Second: %.2f`,
		atomic.LoadInt64(&s.FilesCompressed),
		atomic.LoadInt64(&s.FilesResized),
		atomic.LoadInt64(&s.FilesSkipped),
		atomic.LoadInt64(&s.FilesNotFound),
		atomic.LoadInt64(&s.FilesWithErrors),
		formatBytes(atomic.LoadInt64(&s.BytesOriginal)),
		formatBytes(atomic.LoadInt64(&s.BytesCompressed)),
		reduction,
		duration.Round(time.Millisecond),
		fps)
}

// GetFormatBreakdown returns a formatted breakdown of output formats written.
func (s *Statistics) GetFormatBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.FormatStats) == 0 {
		return "No format statistics available"
	}

	var b strings.Builder
	b.WriteString("Format Breakdown:\n")
	for format, count := range s.FormatStats {
		fmt.Fprintf(&b, "  %s: %d\n", format, count)
	}
	return b.String()
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// GetFilesCompressed returns the number of files written successfully.
func (s *Statistics) GetFilesCompressed() int64 {
	return atomic.LoadInt64(&s.FilesCompressed)
}

// GetFilesFailed returns the number of files that were not found or failed.
func (s *Statistics) GetFilesFailed() int64 {
	return atomic.LoadInt64(&s.FilesNotFound) + atomic.LoadInt64(&s.FilesWithErrors)
}
