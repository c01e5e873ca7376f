package osd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoFont means the fonts directory held no usable TrueType file.
var ErrNoFont = errors.New("no usable font found")

// preferredFonts are picked over arbitrary families when present, in order.
var preferredFonts = []string{
	"DejaVuSans.ttf",
	"LiberationSans-Regular.ttf",
	"OpenSans-Regular.ttf",
	"Roboto-Regular.ttf",
	"Arial.ttf",
	"FreeSans.ttf",
}

// ListFonts returns the TrueType font files under dir, sorted by name.
func ListFonts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fonts dir: %w", err)
	}
	var fonts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lowered := strings.ToLower(name)
		if strings.HasSuffix(lowered, ".ttf") || strings.HasSuffix(lowered, ".otf") {
			fonts = append(fonts, name)
		}
	}
	sort.Strings(fonts)
	return fonts, nil
}

// ResolveFont picks the font file to render with. A non-empty requested name
// matches case-insensitively on substring, then the preferred list is tried,
// then any available font. Exhaustion yields ErrNoFont.
func ResolveFont(dir, requested string) (string, error) {
	fonts, err := ListFonts(dir)
	if err != nil {
		return "", err
	}
	if len(fonts) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoFont, dir)
	}

	if requested != "" {
		needle := strings.ToLower(requested)
		for _, name := range fonts {
			if strings.Contains(strings.ToLower(name), needle) {
				return filepath.Join(dir, name), nil
			}
		}
	}
	for _, preferred := range preferredFonts {
		for _, name := range fonts {
			if strings.EqualFold(name, preferred) {
				return filepath.Join(dir, name), nil
			}
		}
	}
	return filepath.Join(dir, fonts[0]), nil
}
