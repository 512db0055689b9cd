package render

import (
	"fmt"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pngWidth      = 800
	pngPadding    = 32.0
	pngLineHeight = 28.0
)

type pngRenderer struct {
	face font.Face
}

// NewPNG loads the bundled Go Regular font so rendering needs no font files
// on disk.
func NewPNG() (Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &pngRenderer{face: truetype.NewFace(f, &truetype.Options{Size: 18})}, nil
}

func (*pngRenderer) Format() Format      { return FormatPNG }
func (*pngRenderer) ContentType() string { return "image/png" }

func (r *pngRenderer) Render(w io.Writer, title string, lines []Line) error {
	rows := len(lines)
	if title != "" {
		rows += 2
	}
	if rows == 0 {
		rows = 1
	}
	height := int(2*pngPadding + float64(rows)*pngLineHeight)

	dc := gg.NewContext(pngWidth, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(r.face)
	dc.SetColor(color.Black)

	y := pngPadding + pngLineHeight*0.75
	if title != "" {
		dc.DrawString(title, pngPadding, y)
		y += 2 * pngLineHeight
	}
	for _, l := range lines {
		dc.DrawString(FormatLine(l), pngPadding, y)
		y += pngLineHeight
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
