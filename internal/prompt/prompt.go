// Package prompt asks for the batch settings on an interactive terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"

	"image-compressor-go/internal/batch"
	"image-compressor-go/internal/config"
)

// Answers holds the values collected from the user.
type Answers struct {
	InputDir     string
	OutputDir    string
	Quality      int
	MaxDimension int
}

// Ask prompts for the input directory, output directory, quality and
// maximum dimension. Blank answers take the defaults; end of input behaves
// like a blank answer.
func Ask(in io.Reader, out io.Writer) (Answers, error) {
	scanner := bufio.NewScanner(in)
	ask := func(question string) (string, error) {
		if _, err := fmt.Fprint(out, question); err != nil {
			return "", err
		}
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		return "", scanner.Err()
	}

	var a Answers

	line, err := ask(fmt.Sprintf("Source image directory (default: %s): ", config.DefaultInputDir))
	if err != nil {
		return a, fmt.Errorf("read input directory: %w", err)
	}
	a.InputDir = orDefault(batch.NormalizePath(line), config.DefaultInputDir)

	line, err = ask(fmt.Sprintf("Output directory (default: %s): ", config.DefaultOutputDir))
	if err != nil {
		return a, fmt.Errorf("read output directory: %w", err)
	}
	a.OutputDir = orDefault(batch.NormalizePath(line), config.DefaultOutputDir)

	line, err = ask(fmt.Sprintf("JPEG/WebP quality (0-100, default: %d): ", config.DefaultQuality))
	if err != nil {
		return a, fmt.Errorf("read quality: %w", err)
	}
	a.Quality = config.ParseQuality(line)

	line, err = ask(fmt.Sprintf("Maximum size of the longer side (e.g. %d, default: %d, none to keep size): ",
		config.DefaultMaxDimension, config.DefaultMaxDimension))
	if err != nil {
		return a, fmt.Errorf("read max dimension: %w", err)
	}
	a.MaxDimension = config.ParseMaxDimension(line)

	return a, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
