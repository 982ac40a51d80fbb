package batch

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NormalizePath trims surrounding whitespace and matching pairs of quotes,
// so paths pasted from a shell or file manager work unmodified.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	for len(p) >= 2 {
		first, last := p[0], p[len(p)-1]
		if first != last || (first != '"' && first != '\'') {
			break
		}
		p = strings.TrimSpace(p[1 : len(p)-1])
	}
	return p
}

// NormalizeConvertTo validates a target format name and returns its
// extension with a leading dot. An empty name keeps source extensions.
func NormalizeConvertTo(format string) (string, error) {
	format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch format {
	case "":
		return "", nil
	case "jpg", "jpeg", "png", "webp":
		return "." + format, nil
	default:
		return "", fmt.Errorf("unsupported convert_to format: %q (valid: jpg, jpeg, png, webp)", format)
	}
}

// OutputName returns the output basename for name, replacing its extension
// with convertExt when set.
func OutputName(name, convertExt string) string {
	if convertExt == "" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + convertExt
}
