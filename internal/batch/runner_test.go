package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"image-compressor-go/internal/compressor"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRun_MixedDirectory(t *testing.T) {
	tmp := t.TempDir()
	inputDir := filepath.Join(tmp, "in")
	outputDir := filepath.Join(tmp, "out")
	if err := os.Mkdir(inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}

	writeImage(t, filepath.Join(inputDir, "a.jpg"), 2400, 1600)
	writeImage(t, filepath.Join(inputDir, "b.png"), 800, 600)
	writeFile(t, filepath.Join(inputDir, "notes.txt"), "not an image")

	log, hook := test.NewNullLogger()
	comp, err := compressor.NewDefaultCompressor(log)
	if err != nil {
		t.Fatalf("new compressor: %v", err)
	}

	rec := &recorder{}
	runner := NewRunner(log, comp, rec)
	report, err := runner.Run(context.Background(), BatchConfig{
		InputDir:     inputDir,
		OutputDir:    outputDir,
		Quality:      80,
		MaxDimension: 1920,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !report.CreatedOutputDir {
		t.Fatal("expected output directory to be reported as created")
	}
	if len(report.Results) != 2 || report.Succeeded() != 2 {
		t.Fatalf("expected 2 successful results, got %d/%d", report.Succeeded(), len(report.Results))
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "notes.txt" {
		t.Fatalf("unexpected skipped list %v", report.Skipped)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected exactly 2 output files, got %d", len(entries))
	}

	jpg := report.Results[0]
	if filepath.Base(jpg.OutputPath) != "a.jpg" {
		t.Fatalf("unexpected first output %s", jpg.OutputPath)
	}
	if max(jpg.Width, jpg.Height) > 1920 {
		t.Fatalf("a.jpg not shrunk: %dx%d", jpg.Width, jpg.Height)
	}
	if pct, ok := jpg.ReductionPercent(); !ok || pct <= 0 {
		t.Fatalf("expected positive reduction for a.jpg, got %v (%v)", pct, ok)
	}

	pngRes := report.Results[1]
	if pngRes.Width != 800 || pngRes.Height != 600 {
		t.Fatalf("b.png resized to %dx%d", pngRes.Width, pngRes.Height)
	}
	if !strings.HasSuffix(pngRes.Message, "(optimized)") {
		t.Fatalf("unexpected PNG message %q", pngRes.Message)
	}

	if rec.results != 2 || rec.skips != 1 {
		t.Fatalf("observer saw %d results and %d skips", rec.results, rec.skips)
	}
	if !hasMessage(hook, "Skipping unsupported file: notes.txt") {
		t.Fatal("expected skip to be logged")
	}
	if !hasMessage(hook, "Created output directory '"+outputDir+"'") {
		t.Fatal("expected output directory creation to be logged")
	}
}

func TestRun_SkipsUnsupportedAndKeepsGoing(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	for _, name := range []string{"1.jpg", "2.JPEG", "3.png", "4.webp", "bad.jpg"} {
		writeFile(t, filepath.Join(inputDir, name), "x")
	}
	for _, name := range []string{"a.gif", "b.txt", "README"} {
		writeFile(t, filepath.Join(inputDir, name), "x")
	}

	log, _ := test.NewNullLogger()
	fake := &fakeCompressor{fail: map[string]bool{"bad.jpg": true}}
	report, err := NewRunner(log, fake).Run(context.Background(), BatchConfig{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Quality:   55,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(report.Results) != 5 {
		t.Fatalf("expected 5 dispatched files, got %d", len(report.Results))
	}
	if len(report.Skipped) != 3 {
		t.Fatalf("expected 3 skipped files, got %v", report.Skipped)
	}
	if report.Succeeded() != 4 {
		t.Fatalf("expected 4 successes, got %d", report.Succeeded())
	}
	if report.CreatedOutputDir {
		t.Fatal("existing output directory must not be reported as created")
	}

	for _, job := range fake.jobs {
		if job.Quality != 55 || job.MaxDimension != 0 {
			t.Fatalf("unexpected job settings %+v", job)
		}
		if filepath.Dir(job.OutputPath) != outputDir ||
			filepath.Base(job.OutputPath) != filepath.Base(job.InputPath) {
			t.Fatalf("output path %s does not mirror %s", job.OutputPath, job.InputPath)
		}
	}
}

func TestRun_ConvertToRenamesOutputs(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.png", "b.jpg"} {
		writeFile(t, filepath.Join(inputDir, name), "x")
	}

	log, _ := test.NewNullLogger()
	fake := &fakeCompressor{}
	report, err := NewRunner(log, fake).Run(context.Background(), BatchConfig{
		InputDir:  inputDir,
		OutputDir: outputDir,
		ConvertTo: "WebP",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// b.jpg sorts before b.png and claims b.webp first.
	var outputs []string
	for _, job := range fake.jobs {
		outputs = append(outputs, filepath.Base(job.OutputPath))
	}
	if strings.Join(outputs, ",") != "a.webp,b.webp" {
		t.Fatalf("unexpected outputs %v", outputs)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "b.png" {
		t.Fatalf("expected colliding b.png to be skipped, got %v", report.Skipped)
	}
}

func TestRun_CaseVariantNamesBothProcessed(t *testing.T) {
	inputDir := t.TempDir()
	writeFile(t, filepath.Join(inputDir, "A.jpg"), "x")
	writeFile(t, filepath.Join(inputDir, "a.jpg"), "x")
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		t.Fatalf("read input dir: %v", err)
	}
	if len(entries) != 2 {
		t.Skip("filesystem is case-insensitive")
	}

	log, _ := test.NewNullLogger()
	fake := &fakeCompressor{}
	report, err := NewRunner(log, fake).Run(context.Background(), BatchConfig{
		InputDir:  inputDir,
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(report.Results) != 2 || len(report.Skipped) != 0 {
		t.Fatalf("expected 2 results and no skips, got %d results, skipped %v", len(report.Results), report.Skipped)
	}
	if filepath.Base(fake.jobs[0].OutputPath) != "A.jpg" || filepath.Base(fake.jobs[1].OutputPath) != "a.jpg" {
		t.Fatalf("unexpected outputs %s, %s", fake.jobs[0].OutputPath, fake.jobs[1].OutputPath)
	}
}

func TestNewBatchConfig(t *testing.T) {
	cfg := NewBatchConfig("in", "out")
	if cfg.InputDir != "in" || cfg.OutputDir != "out" {
		t.Fatalf("unexpected directories %+v", cfg)
	}
	if cfg.Quality != compressor.DefaultQuality || cfg.Workers != 1 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.MaxDimension != 0 || cfg.ConvertTo != "" || cfg.PreserveMetadata {
		t.Fatalf("expected no resize, conversion or metadata copy: %+v", cfg)
	}

	inputDir := t.TempDir()
	writeFile(t, filepath.Join(inputDir, "a.png"), "x")

	log, _ := test.NewNullLogger()
	fake := &fakeCompressor{}
	if _, err := NewRunner(log, fake).Run(context.Background(), NewBatchConfig(inputDir, t.TempDir())); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(fake.jobs) != 1 || fake.jobs[0].Quality != compressor.DefaultQuality {
		t.Fatalf("expected one job at default quality, got %+v", fake.jobs)
	}
}

func TestRun_InvalidConvertTo(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewRunner(log, &fakeCompressor{}).Run(context.Background(), BatchConfig{
		InputDir:  t.TempDir(),
		OutputDir: t.TempDir(),
		ConvertTo: "tiff",
	})
	if err == nil {
		t.Fatal("expected error for unsupported convert_to")
	}
}

func TestRun_MissingInputDirectory(t *testing.T) {
	tmp := t.TempDir()
	log, _ := test.NewNullLogger()
	_, err := NewRunner(log, &fakeCompressor{}).Run(context.Background(), BatchConfig{
		InputDir:  filepath.Join(tmp, "nope"),
		OutputDir: filepath.Join(tmp, "out"),
	})
	if err == nil {
		t.Fatal("expected error for missing input directory")
	}
}

func TestRun_OutputPathIsFile(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "out")
	writeFile(t, out, "file")

	log, _ := test.NewNullLogger()
	_, err := NewRunner(log, &fakeCompressor{}).Run(context.Background(), BatchConfig{
		InputDir:  t.TempDir(),
		OutputDir: out,
	})
	if err == nil {
		t.Fatal("expected error when the output path is a regular file")
	}
}

func TestRun_QuotedPaths(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "nested", "out")
	writeFile(t, filepath.Join(inputDir, "a.png"), "x")

	log, _ := test.NewNullLogger()
	fake := &fakeCompressor{}
	report, err := NewRunner(log, fake).Run(context.Background(), BatchConfig{
		InputDir:  `  "` + inputDir + `"  `,
		OutputDir: `'` + outputDir + `'`,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.InputDir != inputDir || report.OutputDir != outputDir {
		t.Fatalf("paths not normalized: %q %q", report.InputDir, report.OutputDir)
	}
	if info, err := os.Stat(outputDir); err != nil || !info.IsDir() {
		t.Fatalf("expected nested output directory, stat err = %v", err)
	}
	if len(fake.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(fake.jobs))
	}
}

func TestRun_WorkerPoolKeepsOrder(t *testing.T) {
	inputDir := t.TempDir()
	names := []string{"01.jpg", "02.jpg", "03.jpg", "04.jpg", "05.jpg", "06.jpg", "07.jpg", "08.jpg"}
	for _, name := range names {
		writeFile(t, filepath.Join(inputDir, name), "x")
	}

	log, _ := test.NewNullLogger()
	fake := &fakeCompressor{delay: func(name string) time.Duration {
		// Earlier files take longer so completion order is reversed.
		return time.Duration(len(names)-int(name[1]-'0')) * 5 * time.Millisecond
	}}
	rec := &recorder{}
	report, err := NewRunner(log, fake, rec).Run(context.Background(), BatchConfig{
		InputDir:  inputDir,
		OutputDir: t.TempDir(),
		Workers:   4,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(report.Results) != len(names) {
		t.Fatalf("expected %d results, got %d", len(names), len(report.Results))
	}
	for i, res := range report.Results {
		if filepath.Base(res.InputPath) != names[i] {
			t.Fatalf("result %d is %s, want %s", i, res.InputPath, names[i])
		}
	}
	if rec.results != len(names) {
		t.Fatalf("observer saw %d results", rec.results)
	}
}

func TestRun_CompressorErrorAbortsRun(t *testing.T) {
	inputDir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		writeFile(t, filepath.Join(inputDir, name), "x")
	}

	for _, workers := range []int{1, 3} {
		log, _ := test.NewNullLogger()
		boom := errors.New("caller bug")
		fake := &fakeCompressor{errOn: map[string]error{"b.jpg": boom}}
		_, err := NewRunner(log, fake).Run(context.Background(), BatchConfig{
			InputDir:  inputDir,
			OutputDir: t.TempDir(),
			Workers:   workers,
		})
		if !errors.Is(err, boom) {
			t.Fatalf("workers=%d: expected compressor error, got %v", workers, err)
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	inputDir := t.TempDir()
	writeFile(t, filepath.Join(inputDir, "a.jpg"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log, _ := test.NewNullLogger()
	fake := &fakeCompressor{}
	_, err := NewRunner(log, fake).Run(ctx, BatchConfig{
		InputDir:  inputDir,
		OutputDir: t.TempDir(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fake.jobs) != 0 {
		t.Fatalf("expected no jobs after cancellation, got %d", len(fake.jobs))
	}
}

type fakeCompressor struct {
	mu    sync.Mutex
	jobs  []compressor.CompressionJob
	fail  map[string]bool
	errOn map[string]error
	delay func(name string) time.Duration
}

func (f *fakeCompressor) Compress(ctx context.Context, job compressor.CompressionJob) (compressor.CompressionResult, error) {
	name := filepath.Base(job.InputPath)
	if f.delay != nil {
		time.Sleep(f.delay(name))
	}

	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()

	if err := f.errOn[name]; err != nil {
		return compressor.CompressionResult{}, err
	}

	res := compressor.CompressionResult{
		InputPath:  job.InputPath,
		OutputPath: job.OutputPath,
		Format:     compressor.FormatFromPath(job.OutputPath),
		Quality:    job.Quality,
		Status:     compressor.StatusSuccess,
	}
	if f.fail[name] {
		res.Status = compressor.StatusProcessingError
		res.Err = compressor.ErrProcessing
	}
	return res, nil
}

type recorder struct {
	results int
	skips   int
}

func (r *recorder) ObserveResult(compressor.CompressionResult) { r.results++ }
func (r *recorder) ObserveSkip(string)                         { r.skips++ }

func hasMessage(hook *test.Hook, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel && e.Message == msg {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	var err error
	if strings.HasSuffix(path, ".png") {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	writeFile(t, path, buf.String())
}
