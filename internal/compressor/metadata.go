package compressor

import (
	"errors"
	"fmt"
	"os"

	"github.com/barasher/go-exiftool"
)

// SoftwareTag is written to the Software EXIF field of outputs whose metadata was preserved.
const SoftwareTag = "ImageCompressor"

// preservedTags are copied from source to output. Orientation is left out
// because decoding already rotates the pixels upright.
var preservedTags = []string{
	"DateTimeOriginal",
	"CreateDate",
	"Make",
	"Model",
	"LensModel",
	"Artist",
	"Copyright",
}

// MetadataCopier copies descriptive metadata from src onto dst in place.
type MetadataCopier interface {
	Copy(src, dst string) error
}

type exiftoolCopier struct {
	software string
}

func (c exiftoolCopier) Copy(src, dst string) error {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return fmt.Errorf("start exiftool: %w", err)
	}
	defer et.Close()

	extracted := et.ExtractMetadata(src)
	if len(extracted) == 0 {
		return errors.New("exiftool returned no metadata")
	}
	if extracted[0].Err != nil {
		return fmt.Errorf("read metadata: %w", extracted[0].Err)
	}

	out := exiftool.FileMetadata{
		File:   dst,
		Fields: make(map[string]interface{}),
	}
	for _, tag := range preservedTags {
		if v, err := extracted[0].GetString(tag); err == nil && v != "" {
			out.SetString(tag, v)
		}
	}
	out.SetString("Software", c.software)

	batch := []exiftool.FileMetadata{out}
	et.WriteMetadata(batch)
	_ = os.Remove(dst + "_original")
	if batch[0].Err != nil {
		return fmt.Errorf("write metadata: %w", batch[0].Err)
	}
	return nil
}
