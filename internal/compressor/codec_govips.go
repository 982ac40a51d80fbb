//go:build govips && cgo

package compressor

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

type vipsCodec struct{}

func (c vipsCodec) Transcode(ctx context.Context, input []byte, opts EncodeOptions) (Encoded, error) {
	select {
	case <-ctx.Done():
		return Encoded{}, ctx.Err()
	default:
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return Encoded{}, fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return Encoded{}, fmt.Errorf("apply orientation: %w", err)
	}

	native := vips.ImageTypes[img.Format()]
	srcW, srcH := img.Width(), img.Height()

	if scale := shrinkScale(srcW, srcH, opts.MaxDimension); scale < 1 {
		if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
			return Encoded{}, fmt.Errorf("resize image: %w", err)
		}
	}

	data, err := exportVips(img, opts)
	if err != nil {
		return Encoded{}, err
	}

	return Encoded{
		Data:         data,
		NativeFormat: native,
		SourceWidth:  srcW,
		SourceHeight: srcH,
		Width:        img.Width(),
		Height:       img.Height(),
	}, nil
}

func exportVips(img *vips.ImageRef, opts EncodeOptions) ([]byte, error) {
	switch opts.Format {
	case FormatJPEG:
		params := vips.NewJpegExportParams()
		params.Quality = opts.Quality
		params.OptimizeCoding = true
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case FormatPNG:
		params := vips.NewPngExportParams()
		params.Compression = 9
		data, _, err := img.ExportPng(params)
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	case FormatWebP:
		params := vips.NewWebpExportParams()
		params.Quality = opts.Quality
		data, _, err := img.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	default:
		data, _, err := img.ExportNative()
		if err != nil {
			return nil, fmt.Errorf("encode native: %w", err)
		}
		return data, nil
	}
}
