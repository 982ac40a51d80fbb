package metrics

import (
	"fmt"

	"image-compressor-go/internal/compressor"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for a compression run.
type Metrics struct {
	registry        *prometheus.Registry
	filesTotal      *prometheus.CounterVec
	skippedTotal    prometheus.Counter
	bytesInTotal    prometheus.Counter
	bytesOutTotal   prometheus.Counter
	compressSeconds *prometheus.HistogramVec
}

// New returns Metrics registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_compressor_files_total",
			Help: "Files handed to the compressor by output format and final status.",
		}, []string{"format", "status"}),
		skippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_compressor_skipped_total",
			Help: "Directory entries skipped as unsupported.",
		}),
		bytesInTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_compressor_input_bytes_total",
			Help: "Bytes read from successfully compressed inputs.",
		}),
		bytesOutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_compressor_output_bytes_total",
			Help: "Bytes written to compressed outputs.",
		}),
		compressSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "image_compressor_compress_duration_seconds",
			Help:    "Time spent compressing a single file.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
	}

	m.registry.MustRegister(
		m.filesTotal,
		m.skippedTotal,
		m.bytesInTotal,
		m.bytesOutTotal,
		m.compressSeconds,
	)
	return m
}

// ObserveResult records the outcome of one compression.
func (m *Metrics) ObserveResult(res compressor.CompressionResult) {
	format := res.Format.String()
	m.filesTotal.WithLabelValues(format, res.Status.String()).Inc()
	if res.Status != compressor.StatusSuccess {
		return
	}
	m.bytesInTotal.Add(float64(res.OriginalSize))
	m.bytesOutTotal.Add(float64(res.CompressedSize))
	m.compressSeconds.WithLabelValues(format).Observe(res.Duration().Seconds())
}

// ObserveSkip records a directory entry that was not dispatched.
func (m *Metrics) ObserveSkip(string) {
	m.skippedTotal.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
