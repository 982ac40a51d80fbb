package compressor

import (
	"context"
	"errors"
	"time"
)

// DefaultQuality is the JPEG/WebP quality used when a job is built with NewJob.
const DefaultQuality = 85

var (
	// ErrFileNotFound marks results whose input path does not resolve to a regular file.
	ErrFileNotFound = errors.New("file not found")
	// ErrProcessing marks results whose read, decode, resize, encode or write step failed.
	ErrProcessing = errors.New("processing error")
	// ErrInvalidJob is returned (not reported) when a job is malformed by its caller.
	ErrInvalidJob = errors.New("invalid compression job")
)

// Status is the outcome kind of a single compression.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusProcessingError
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	case StatusProcessingError:
		return "processing_error"
	default:
		return "unknown"
	}
}

// CompressionJob describes one file to compress.
// MaxDimension bounds the longer side of the output; 0 disables resizing.
type CompressionJob struct {
	InputPath        string
	OutputPath       string
	Quality          int
	MaxDimension     int
	PreserveMetadata bool
}

// NewJob returns a job with DefaultQuality and no resizing.
func NewJob(inputPath, outputPath string) CompressionJob {
	return CompressionJob{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Quality:    DefaultQuality,
	}
}

// CompressionResult describes the result of compressing a single file.
type CompressionResult struct {
	Status         Status
	InputPath      string
	OutputPath     string
	Format         Format
	NativeFormat   string
	Quality        int
	OriginalSize   int64
	CompressedSize int64
	SourceWidth    int
	SourceHeight   int
	Width          int
	Height         int
	Message        string
	Warning        string
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Success reports whether the output file was written.
func (r CompressionResult) Success() bool {
	return r.Status == StatusSuccess
}

// ReductionPercent returns (original - compressed) / original * 100.
// The second value is false when the original size is zero.
func (r CompressionResult) ReductionPercent() (float64, bool) {
	if r.OriginalSize == 0 {
		return 0, false
	}
	return float64(r.OriginalSize-r.CompressedSize) / float64(r.OriginalSize) * 100, true
}

// Duration returns how long the compression took.
func (r CompressionResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Compressor defines the interface for single-file image compression.
type Compressor interface {
	// Compress writes job.OutputPath from job.InputPath. Missing inputs and
	// codec or I/O failures are reported in the result; the error return is
	// reserved for malformed jobs and context cancellation.
	Compress(ctx context.Context, job CompressionJob) (CompressionResult, error)
}
