package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"image-compressor-go/internal/compressor"
	"image-compressor-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// BatchConfig holds the settings for one directory run.
type BatchConfig struct {
	InputDir         string
	OutputDir        string
	Quality          int
	MaxDimension     int
	Workers          int
	ConvertTo        string
	PreserveMetadata bool
}

// NewBatchConfig returns a sequential run at compressor.DefaultQuality with
// no resizing and source extensions kept.
func NewBatchConfig(inputDir, outputDir string) BatchConfig {
	return BatchConfig{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Quality:   compressor.DefaultQuality,
		Workers:   1,
	}
}

// Report describes what a run did.
type Report struct {
	InputDir         string
	OutputDir        string
	CreatedOutputDir bool
	Results          []compressor.CompressionResult
	Skipped          []string
}

// Succeeded returns the number of results whose output was written.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success() {
			n++
		}
	}
	return n
}

// Observer receives every per-file outcome of a run.
type Observer interface {
	ObserveResult(res compressor.CompressionResult)
	ObserveSkip(name string)
}

// Runner compresses every supported image directly under a directory.
type Runner struct {
	logger     *logrus.Logger
	compressor compressor.Compressor
	observers  []Observer
	reportMu   sync.Mutex
}

type task struct {
	index int
	name  string
	job   compressor.CompressionJob
}

// NewRunner returns a Runner that reports to the given observers.
func NewRunner(log *logrus.Logger, comp compressor.Compressor, observers ...Observer) *Runner {
	return &Runner{
		logger:     log,
		compressor: comp,
		observers:  observers,
	}
}

// Run processes cfg.InputDir into cfg.OutputDir. Per-file failures are part
// of the report; the error return covers unusable directories, malformed
// jobs and cancellation.
func (r *Runner) Run(ctx context.Context, cfg BatchConfig) (*Report, error) {
	inputDir := NormalizePath(cfg.InputDir)
	outputDir := NormalizePath(cfg.OutputDir)
	if inputDir == "" {
		return nil, errors.New("input directory is required")
	}
	if outputDir == "" {
		return nil, errors.New("output directory is required")
	}
	convertExt, err := NormalizeConvertTo(cfg.ConvertTo)
	if err != nil {
		return nil, err
	}

	report := &Report{InputDir: inputDir, OutputDir: outputDir}

	created, err := ensureDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if created {
		report.CreatedOutputDir = true
		r.logger.Infof("Created output directory '%s'", outputDir)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	runLog := logger.WithRun(r.logger, inputDir, outputDir)
	tasks := r.plan(report, entries, cfg, convertExt)
	runLog.Debugf("Found %d supported images", len(tasks))

	if cfg.Workers > 1 {
		report.Results, err = r.runPool(ctx, tasks, cfg.Workers)
	} else {
		report.Results, err = r.runSequential(ctx, tasks)
	}
	if err != nil {
		return report, err
	}

	runLog.Infof("Compression finished: %d processed, %d succeeded, %d skipped",
		len(report.Results), report.Succeeded(), len(report.Skipped))
	return report, nil
}

// plan filters entries by extension and builds one job per supported file.
func (r *Runner) plan(report *Report, entries []os.DirEntry, cfg BatchConfig, convertExt string) []task {
	var tasks []task
	outputs := make(map[string]string)

	for _, entry := range entries {
		name := entry.Name()
		if !compressor.IsSupported(name) {
			r.skip(report, name, fmt.Sprintf("Skipping unsupported file: %s", name))
			continue
		}

		outName := OutputName(name, convertExt)
		// Only a changed extension can make two entries share an output name.
		if convertExt != "" {
			if prev, ok := outputs[outName]; ok {
				r.skip(report, name, fmt.Sprintf("Skipping %s: output %s already produced from %s", name, outName, prev))
				continue
			}
			outputs[outName] = name
		}

		tasks = append(tasks, task{
			index: len(tasks),
			name:  name,
			job: compressor.CompressionJob{
				InputPath:        filepath.Join(report.InputDir, name),
				OutputPath:       filepath.Join(report.OutputDir, outName),
				Quality:          cfg.Quality,
				MaxDimension:     cfg.MaxDimension,
				PreserveMetadata: cfg.PreserveMetadata,
			},
		})
	}
	return tasks
}

func (r *Runner) runSequential(ctx context.Context, tasks []task) ([]compressor.CompressionResult, error) {
	results := make([]compressor.CompressionResult, 0, len(tasks))
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.process(ctx, t)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// runPool compresses with a bounded set of workers and returns results in
// task order.
func (r *Runner) runPool(ctx context.Context, tasks []task, workers int) ([]compressor.CompressionResult, error) {
	type outcome struct {
		index int
		res   compressor.CompressionResult
		err   error
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan task)
	outcomes := make(chan outcome, len(tasks))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for t := range jobs {
				res, err := r.process(ctx, t)
				if err != nil {
					cancel()
				}
				outcomes <- outcome{index: t.index, res: res, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- t:
			}
		}
	}()

	wg.Wait()
	close(outcomes)

	done := make([]*compressor.CompressionResult, len(tasks))
	var firstErr error
	for o := range outcomes {
		if o.err != nil {
			if firstErr == nil || isContextErr(firstErr) && !isContextErr(o.err) {
				firstErr = o.err
			}
			continue
		}
		res := o.res
		done[o.index] = &res
	}

	results := make([]compressor.CompressionResult, 0, len(tasks))
	for _, res := range done {
		if res != nil {
			results = append(results, *res)
		}
	}
	if firstErr != nil {
		return results, firstErr
	}
	return results, nil
}

func (r *Runner) process(ctx context.Context, t task) (compressor.CompressionResult, error) {
	logger.WithFile(r.logger, t.job.InputPath).Infof("Processing: %s", t.name)

	res, err := r.compressor.Compress(ctx, t.job)
	if err != nil {
		return res, fmt.Errorf("compress %s: %w", t.name, err)
	}

	r.reportMu.Lock()
	defer r.reportMu.Unlock()
	for _, o := range r.observers {
		o.ObserveResult(res)
	}
	return res, nil
}

func (r *Runner) skip(report *Report, name, message string) {
	r.logger.Info(message)
	report.Skipped = append(report.Skipped, name)

	r.reportMu.Lock()
	defer r.reportMu.Unlock()
	for _, o := range r.observers {
		o.ObserveSkip(name)
	}
}

// ensureDir creates dir and its parents, reporting whether it was absent.
func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}
	return true, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
