package compressor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"image-compressor-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// DefaultCompressor is the default implementation of the Compressor interface.
type DefaultCompressor struct {
	logger   *logrus.Logger
	codec    Codec
	metadata MetadataCopier
}

// NewDefaultCompressor creates a DefaultCompressor on the codec backend
// selected at build time.
func NewDefaultCompressor(log *logrus.Logger) (*DefaultCompressor, error) {
	codec, err := newCodec()
	if err != nil {
		return nil, fmt.Errorf("build codec: %w", err)
	}
	return NewCompressorWithCodec(log, codec), nil
}

// NewCompressorWithCodec creates a DefaultCompressor around an explicit codec.
func NewCompressorWithCodec(log *logrus.Logger, codec Codec) *DefaultCompressor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DefaultCompressor{
		logger:   log,
		codec:    codec,
		metadata: exiftoolCopier{software: SoftwareTag},
	}
}

// Compress performs image compression for a single job.
func (c *DefaultCompressor) Compress(ctx context.Context, job CompressionJob) (CompressionResult, error) {
	if err := validateJob(job); err != nil {
		return CompressionResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return CompressionResult{}, err
	}

	log := logger.WithFileOperation(c.logger, job.InputPath, "compress")
	res := CompressionResult{
		InputPath:  job.InputPath,
		OutputPath: job.OutputPath,
		Format:     FormatFromPath(job.OutputPath),
		Quality:    job.Quality,
		StartedAt:  time.Now(),
	}

	info, err := os.Stat(job.InputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.notFound(res, log), nil
		}
		return c.failed(res, err, log), nil
	}
	if !info.Mode().IsRegular() {
		return c.notFound(res, log), nil
	}
	res.OriginalSize = info.Size()

	input, err := os.ReadFile(job.InputPath)
	if err != nil {
		return c.failed(res, fmt.Errorf("read input: %w", err), log), nil
	}

	encoded, err := c.codec.Transcode(ctx, input, EncodeOptions{
		Format:       res.Format,
		Quality:      job.Quality,
		MaxDimension: job.MaxDimension,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return CompressionResult{}, err
		}
		return c.failed(res, err, log), nil
	}
	res.NativeFormat = encoded.NativeFormat
	res.SourceWidth, res.SourceHeight = encoded.SourceWidth, encoded.SourceHeight
	res.Width, res.Height = encoded.Width, encoded.Height

	warning, err := c.writeOutput(job, res.Format, encoded.Data)
	if err != nil {
		return c.failed(res, err, log), nil
	}

	compInfo, err := os.Stat(job.OutputPath)
	if err != nil {
		return c.failed(res, fmt.Errorf("stat output: %w", err), log), nil
	}
	res.CompressedSize = compInfo.Size()
	res.Status = StatusSuccess
	res.Message = statusLine(res)
	res.Warning = warning
	res.FinishedAt = time.Now()

	// One entry per file keeps the report contiguous when workers run in parallel.
	log.Info(strings.Join([]string{res.Message, SizeLine(res), ReductionLine(res)}, "\n"))
	if res.Warning != "" {
		log.Warn(res.Warning)
	}
	log.WithFields(logrus.Fields{
		"source_size": fmt.Sprintf("%dx%d", res.SourceWidth, res.SourceHeight),
		"output_size": fmt.Sprintf("%dx%d", res.Width, res.Height),
		"duration":    res.Duration(),
	}).Debug("Compression finished")

	return res, nil
}

// writeOutput writes data next to the output path and renames it into place,
// so a failed run never leaves a truncated file at job.OutputPath.
func (c *DefaultCompressor) writeOutput(job CompressionJob, format Format, data []byte) (string, error) {
	dir := filepath.Dir(job.OutputPath)
	base := filepath.Base(job.OutputPath)
	ext := filepath.Ext(base)

	// The temp name keeps the extension so exiftool recognises the file type.
	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, ext)+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}

	var warning string
	if job.PreserveMetadata && format == FormatJPEG && c.metadata != nil {
		if err := c.metadata.Copy(job.InputPath, tmpPath); err != nil {
			warning = fmt.Sprintf("metadata not preserved: %v", err)
		}
	}

	if err := os.Rename(tmpPath, job.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return warning, nil
}

func (c *DefaultCompressor) notFound(res CompressionResult, log *logrus.Entry) CompressionResult {
	res.Status = StatusNotFound
	res.Err = fmt.Errorf("%w: %s", ErrFileNotFound, res.InputPath)
	res.Message = fmt.Sprintf("Error: file not found '%s'", res.InputPath)
	res.FinishedAt = time.Now()
	log.Error(res.Message)
	return res
}

func (c *DefaultCompressor) failed(res CompressionResult, cause error, log *logrus.Entry) CompressionResult {
	res.Status = StatusProcessingError
	res.Err = fmt.Errorf("%w: %w", ErrProcessing, cause)
	res.Message = fmt.Sprintf("Error processing '%s': %v", res.InputPath, cause)
	res.FinishedAt = time.Now()
	log.WithError(cause).Error(res.Message)
	return res
}

func validateJob(job CompressionJob) error {
	if strings.TrimSpace(job.InputPath) == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidJob)
	}
	if strings.TrimSpace(job.OutputPath) == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidJob)
	}
	if job.MaxDimension < 0 {
		return fmt.Errorf("%w: max dimension must not be negative, got %d", ErrInvalidJob, job.MaxDimension)
	}
	return nil
}
