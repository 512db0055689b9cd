package render

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const pdfFont = "go"

type pdfRenderer struct {
	compress bool
}

func NewPDF() Renderer { return pdfRenderer{compress: true} }

func (pdfRenderer) Format() Format      { return FormatPDF }
func (pdfRenderer) ContentType() string { return "application/pdf" }

func (r pdfRenderer) Render(w io.Writer, title string, lines []Line) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	// Core fonts are cp1252 only; ingredient names can be in any script.
	pdf.AddUTF8FontFromBytes(pdfFont, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", gobold.TTF)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(pdfFont, "B", 16)
		pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}
	pdf.SetFont(pdfFont, "", 12)
	for _, l := range lines {
		pdf.CellFormat(0, 8, FormatLine(l), "", 1, "L", false, 0, "")
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
