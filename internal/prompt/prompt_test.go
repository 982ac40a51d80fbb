package prompt

import (
	"bytes"
	"strings"
	"testing"

	"image-compressor-go/internal/config"
)

func TestAsk_Answers(t *testing.T) {
	in := strings.NewReader("\"/data/My Photos\"\n  ./small  \n65\nnone\n")
	var out bytes.Buffer

	a, err := Ask(in, &out)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	want := Answers{InputDir: "/data/My Photos", OutputDir: "./small", Quality: 65, MaxDimension: 0}
	if a != want {
		t.Fatalf("answers = %+v, want %+v", a, want)
	}

	prompts := out.String()
	for _, q := range []string{
		"Source image directory (default: images_originales): ",
		"Output directory (default: images_comprimidas): ",
		"JPEG/WebP quality (0-100, default: 80): ",
		"Maximum size of the longer side",
	} {
		if !strings.Contains(prompts, q) {
			t.Errorf("missing prompt %q in %q", q, prompts)
		}
	}
}

func TestAsk_BlankAnswersUseDefaults(t *testing.T) {
	a, err := Ask(strings.NewReader("\n\nabc\n\n"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	want := Answers{
		InputDir:     config.DefaultInputDir,
		OutputDir:    config.DefaultOutputDir,
		Quality:      config.DefaultQuality,
		MaxDimension: config.DefaultMaxDimension,
	}
	if a != want {
		t.Fatalf("answers = %+v, want %+v", a, want)
	}
}

func TestAsk_EndOfInput(t *testing.T) {
	a, err := Ask(strings.NewReader("only-input\n"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if a.InputDir != "only-input" || a.OutputDir != config.DefaultOutputDir {
		t.Fatalf("unexpected directories %+v", a)
	}
	if a.Quality != config.DefaultQuality || a.MaxDimension != config.DefaultMaxDimension {
		t.Fatalf("unexpected settings %+v", a)
	}
}
