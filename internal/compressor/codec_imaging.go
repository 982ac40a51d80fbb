package compressor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegli"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"
)

// imagingCodec is the pure-Go codec built on disintegration/imaging.
// JPEG output goes through gen2brain/jpegli for optimized Huffman tables and
// WebP output through gen2brain/webp since imaging only decodes it.
type imagingCodec struct{}

func (c imagingCodec) Transcode(ctx context.Context, input []byte, opts EncodeOptions) (Encoded, error) {
	select {
	case <-ctx.Done():
		return Encoded{}, ctx.Err()
	default:
	}

	_, native, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return Encoded{}, fmt.Errorf("decode source image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return Encoded{}, fmt.Errorf("decode source image: %w", err)
	}
	src := img.Bounds()

	if opts.MaxDimension > 0 {
		// Fit returns an unscaled clone when the image already fits.
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := encodeImaging(&buf, img, opts, native); err != nil {
		return Encoded{}, err
	}

	out := img.Bounds()
	return Encoded{
		Data:         buf.Bytes(),
		NativeFormat: native,
		SourceWidth:  src.Dx(),
		SourceHeight: src.Dy(),
		Width:        out.Dx(),
		Height:       out.Dy(),
	}, nil
}

func encodeImaging(w io.Writer, img image.Image, opts EncodeOptions, native string) error {
	switch opts.Format {
	case FormatJPEG:
		if err := jpegli.Encode(w, img, jpegOptions(opts.Quality)); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
	case FormatPNG:
		if err := imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	case FormatWebP:
		if err := webp.Encode(w, img, webp.Options{Quality: opts.Quality}); err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
	default:
		return encodeNative(w, img, native)
	}
	return nil
}

// jpegOptions is a sequential 4:2:0 encode with Huffman table optimization.
func jpegOptions(quality int) *jpegli.EncodingOptions {
	return &jpegli.EncodingOptions{
		Quality:              quality,
		ChromaSubsampling:    image.YCbCrSubsampleRatio420,
		ProgressiveLevel:     0,
		OptimizeCoding:       true,
		AdaptiveQuantization: true,
	}
}

// encodeNative saves img in its decoded format with encoder defaults.
func encodeNative(w io.Writer, img image.Image, native string) error {
	if native == "webp" {
		if err := webp.Encode(w, img); err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
		return nil
	}

	f, err := imaging.FormatFromExtension(native)
	if err != nil {
		return fmt.Errorf("unsupported native format %q: %w", native, err)
	}
	if err := imaging.Encode(w, img, f); err != nil {
		return fmt.Errorf("encode %s: %w", native, err)
	}
	return nil
}
