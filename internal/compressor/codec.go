package compressor

import (
	"context"
)

// EncodeOptions carries the per-job encoder settings handed to a Codec.
type EncodeOptions struct {
	Format       Format
	Quality      int
	MaxDimension int
}

// Encoded is the output of a Codec transcode.
type Encoded struct {
	Data         []byte
	NativeFormat string
	SourceWidth  int
	SourceHeight int
	Width        int
	Height       int
}

// Codec decodes source bytes, shrinks them to fit MaxDimension and encodes
// them in the requested format.
type Codec interface {
	Transcode(ctx context.Context, input []byte, opts EncodeOptions) (Encoded, error)
}

// shrinkScale returns the factor that fits w x h inside maxDim x maxDim.
// It never exceeds 1.
func shrinkScale(w, h, maxDim int) float64 {
	if maxDim <= 0 || w <= 0 || h <= 0 {
		return 1
	}
	longer := max(w, h)
	if longer <= maxDim {
		return 1
	}
	return float64(maxDim) / float64(longer)
}
