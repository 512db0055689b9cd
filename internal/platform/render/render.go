// Package render turns an aggregated shopping list into a downloadable
// document.
package render

import (
	"fmt"
	"io"
	"strings"
)

type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
	FormatTXT Format = "txt"
)

// Line is one merged ingredient of a shopping list.
type Line struct {
	Name   string
	Unit   string
	Amount int
}

// Renderer writes lines in a single output format.
type Renderer interface {
	Format() Format
	ContentType() string
	Render(w io.Writer, title string, lines []Line) error
}

// FormatLine is the human-readable form shared by every renderer.
func FormatLine(l Line) string {
	return fmt.Sprintf("%s (%s) — %d", l.Name, l.Unit, l.Amount)
}

// ParseFormat maps a query value to a Format. Empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatPNG, FormatTXT:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Registry holds one renderer per format.
type Registry struct {
	renderers map[Format]Renderer
}

func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{renderers: make(map[Format]Renderer, len(renderers))}
	for _, rr := range renderers {
		r.renderers[rr.Format()] = rr
	}
	return r
}

// Default returns a registry with the pdf, png and txt renderers.
func Default() (*Registry, error) {
	png, err := NewPNG()
	if err != nil {
		return nil, err
	}
	return NewRegistry(NewPDF(), png, NewText()), nil
}

func (r *Registry) Get(f Format) (Renderer, error) {
	if r == nil {
		return nil, fmt.Errorf("no renderers configured")
	}
	rr, ok := r.renderers[f]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
	return rr, nil
}
