package osd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/fogleman/gg"
)

// Layout constants tuned against 1080p frames.
const (
	fontScale    = 5
	edgePadding  = 20
	lineSpacing  = 10
	boxMargin    = 10
	backingAlpha = 220
	jpegQuality  = 90
)

// Anchors enumerates the valid overlay positions.
var Anchors = []string{"top_left", "top_right", "bottom_left", "bottom_right", "center"}

// namedColors maps config color names to render colors. Unknown names fall
// back to white.
var namedColors = map[string]color.RGBA{
	"white":   {255, 255, 255, 255},
	"black":   {0, 0, 0, 255},
	"red":     {255, 0, 0, 255},
	"green":   {0, 255, 0, 255},
	"blue":    {0, 0, 255, 255},
	"yellow":  {255, 255, 0, 255},
	"cyan":    {0, 255, 255, 255},
	"magenta": {255, 0, 255, 255},
	"orange":  {255, 165, 0, 255},
	"purple":  {128, 0, 128, 255},
	"gray":    {128, 128, 128, 255},
}

// ColorByName resolves a config color name, defaulting to white.
func ColorByName(name string) color.RGBA {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return namedColors["white"]
}

// Overlay describes how the text block is drawn.
type Overlay struct {
	FontPath string
	FontSize int
	Position string
	Color    color.RGBA
}

// Render decodes a JPEG frame, draws the overlay lines over a translucent
// backing box, and re-encodes. An empty line set returns the frame untouched.
func Render(frame []byte, lines []string, ov Overlay) ([]byte, error) {
	if len(lines) == 0 {
		return frame, nil
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	dc := gg.NewContextForImage(img)
	points := float64(ov.FontSize * fontScale)
	if err := dc.LoadFontFace(ov.FontPath, points); err != nil {
		return nil, fmt.Errorf("load font %s: %w", ov.FontPath, err)
	}

	// Measure the text block.
	lineHeight := dc.FontHeight()
	widths := make([]float64, len(lines))
	var blockWidth float64
	for i, line := range lines {
		w, _ := dc.MeasureString(line)
		widths[i] = w
		if w > blockWidth {
			blockWidth = w
		}
	}
	blockHeight := lineHeight*float64(len(lines)) + lineSpacing*float64(len(lines)-1)

	x, y := anchorOrigin(ov.Position, float64(dc.Width()), float64(dc.Height()), blockWidth, blockHeight)

	// Each line gets its own backing box, expanded past the text on every
	// side, so short lines do not carry a full-width bar.
	dc.SetRGBA255(0, 0, 0, backingAlpha)
	for i := range lines {
		top := y + float64(i)*(lineHeight+lineSpacing)
		dc.DrawRectangle(x-boxMargin, top-boxMargin, widths[i]+2*boxMargin, lineHeight+2*boxMargin)
	}
	dc.Fill()

	dc.SetColor(ov.Color)
	for i, line := range lines {
		top := y + float64(i)*(lineHeight+lineSpacing)
		dc.DrawStringAnchored(line, x, top+lineHeight/2, 0, 0.5)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return out.Bytes(), nil
}

func anchorOrigin(position string, frameW, frameH, blockW, blockH float64) (float64, float64) {
	switch position {
	case "top_right":
		return frameW - blockW - edgePadding, edgePadding
	case "bottom_left":
		return edgePadding, frameH - blockH - edgePadding
	case "bottom_right":
		return frameW - blockW - edgePadding, frameH - blockH - edgePadding
	case "center":
		return (frameW - blockW) / 2, (frameH - blockH) / 2
	default:
		return edgePadding, edgePadding
	}
}
