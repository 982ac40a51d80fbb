package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"image-compressor-go/internal/batch"
	"image-compressor-go/internal/compressor"
	"image-compressor-go/internal/config"
	"image-compressor-go/internal/extractor"
	"image-compressor-go/internal/logger"
	"image-compressor-go/internal/metrics"
	"image-compressor-go/internal/prompt"
	"image-compressor-go/internal/statistics"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile          string
	inputDir         string
	outputDir        string
	quality          int
	maxDimension     string
	workers          int
	convertTo        string
	preserveMetadata bool
	interactive      bool
	metricsFile      string
	verbose          bool
	quiet            bool
	version          = "dev"
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "image-compressor",
	Short: "Batch-compress JPEG, PNG and WebP images in a directory",
	Long: `image-compressor compresses every JPEG, PNG and WebP image found directly
inside an input directory and writes the results, under the same file names,
to an output directory.

Features:
- JPEG and WebP re-encoding at a configurable quality
- Lossless PNG re-encoding at maximum compression
- Optional shrink-to-fit so the longer side never exceeds a maximum dimension
- Optional conversion of every output to one format (--convert-to)
- Per-file size reduction report and run summary`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd)
	},
}

// compressCmd compresses a single file.
var compressCmd = &cobra.Command{
	Use:   "compress <input> <output>",
	Short: "Compress a single image",
	Long: `Compress one image. The output extension selects the format:
.jpg/.jpeg for JPEG, .png for PNG, .webp for WebP; anything else keeps the
source format. The output directory must already exist.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompress(cmd, args[0], args[1])
	},
}

// inspectCmd prints image information.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show format, dimensions and EXIF data of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&maxDimension, "max-dimension", "", `maximum longer side in pixels, "none" to keep size`)
	rootCmd.PersistentFlags().BoolVar(&preserveMetadata, "preserve-metadata", false, "copy EXIF date and camera tags to JPEG outputs (needs exiftool)")

	rootCmd.Flags().IntVar(&quality, "quality", config.DefaultQuality, "JPEG/WebP quality (0-100)")
	rootCmd.Flags().StringVar(&inputDir, "input", "", "directory containing the original images")
	rootCmd.Flags().StringVar(&outputDir, "output", "", "directory for compressed images (created if missing)")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "number of images compressed in parallel")
	rootCmd.Flags().StringVar(&convertTo, "convert-to", "", "write every output as jpg, png or webp")
	rootCmd.Flags().BoolVar(&interactive, "interactive", false, "ask for directories, quality and size on stdin")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile after the run")

	compressCmd.Flags().IntVar(&quality, "quality", compressor.DefaultQuality, "JPEG/WebP quality (0-100)")

	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(inspectCmd)
}

// runBatch executes the directory compression.
func runBatch(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if interactive {
		answers, err := prompt.Ask(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("interactive input failed: %w", err)
		}
		cfg.InputDir = answers.InputDir
		cfg.OutputDir = answers.OutputDir
		cfg.Quality = answers.Quality
		cfg.MaxDimension = answers.MaxDimension
	}

	log := setupLogger(cfg)

	comp, err := compressor.NewDefaultCompressor(log)
	if err != nil {
		return err
	}
	defer compressor.Shutdown()

	stats := statistics.NewStatistics()
	observers := []batch.Observer{stats}
	var m *metrics.Metrics
	if cfg.Metrics.TextfilePath != "" {
		m = metrics.New()
		observers = append(observers, m)
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.WithFields(logrus.Fields{
		"input":         cfg.InputDir,
		"output":        cfg.OutputDir,
		"quality":       cfg.Quality,
		"max_dimension": cfg.MaxDimension,
		"workers":       cfg.Workers,
		"backend":       compressor.Backend,
	}).Debug("Starting compression run")

	runner := batch.NewRunner(log, comp, observers...)
	batchCfg := batch.NewBatchConfig(cfg.InputDir, cfg.OutputDir)
	batchCfg.Quality = cfg.Quality
	batchCfg.MaxDimension = cfg.MaxDimension
	batchCfg.Workers = cfg.Workers
	batchCfg.ConvertTo = cfg.ConvertTo
	batchCfg.PreserveMetadata = cfg.PreserveMetadata

	_, runErr := runner.Run(ctx, batchCfg)
	stats.Finalize()

	if m != nil {
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			log.Errorf("Could not write metrics: %v", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("compression failed: %w", runErr)
	}

	if !quiet {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n"+stats.GetSummary())
		if stats.GetFilesFailed() > 0 {
			fmt.Fprintln(out, "\n"+stats.GetErrorSummary())
		}
		fmt.Fprintln(out, "\nImage compression finished.")
	}
	return nil
}

// runCompress compresses a single file.
func runCompress(cmd *cobra.Command, input, output string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg)

	comp, err := compressor.NewDefaultCompressor(log)
	if err != nil {
		return err
	}
	defer compressor.Shutdown()

	job := compressor.NewJob(batch.NormalizePath(input), batch.NormalizePath(output))
	if cmd.Flags().Changed("quality") {
		job.Quality = cfg.Quality
	}
	if cmd.Flags().Changed("max-dimension") {
		job.MaxDimension = cfg.MaxDimension
	}
	job.PreserveMetadata = cfg.PreserveMetadata

	ctx, cancel := signalContext()
	defer cancel()

	res, err := comp.Compress(ctx, job)
	if err != nil {
		return err
	}
	if !res.Success() {
		return res.Err
	}
	return nil
}

// runInspect prints image information for a file.
func runInspect(out io.Writer, path string) error {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	info, err := extractor.NewEXIFExtractor(log).Extract(batch.NormalizePath(path))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "File:       %s\n", info.Path)
	fmt.Fprintf(out, "Format:     %s\n", info.Format)
	fmt.Fprintf(out, "Dimensions: %dx%d\n", info.Width, info.Height)
	fmt.Fprintf(out, "Size:       %.2f MB (%d bytes)\n", compressor.Megabytes(info.Size), info.Size)
	if info.EXIF == nil {
		fmt.Fprintln(out, "EXIF:       none")
		return nil
	}
	if info.EXIF.DateTime != nil {
		fmt.Fprintf(out, "Date:       %s (%s)\n", info.EXIF.DateTime.Format("2006-01-02 15:04:05"), info.EXIF.DateSource)
	}
	if info.EXIF.Make != "" || info.EXIF.Model != "" {
		fmt.Fprintf(out, "Camera:     %s %s\n", info.EXIF.Make, info.EXIF.Model)
	}
	if info.EXIF.Software != "" {
		fmt.Fprintf(out, "Software:   %s\n", info.EXIF.Software)
	}
	if info.EXIF.Orientation != 0 {
		fmt.Fprintf(out, "Orientation: %d\n", info.EXIF.Orientation)
	}
	return nil
}

// loadConfig loads configuration and applies CLI overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if inputDir != "" {
		cfg.InputDir = inputDir
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("quality") {
		cfg.Quality = quality
	}
	if flags.Changed("max-dimension") {
		cfg.MaxDimension = config.ParseMaxDimension(maxDimension)
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if convertTo != "" {
		cfg.ConvertTo = convertTo
	}
	if preserveMetadata {
		cfg.PreserveMetadata = true
	}
	if metricsFile != "" {
		cfg.Metrics.TextfilePath = metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    !quiet,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
