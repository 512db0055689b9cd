package render

import (
	"bufio"
	"io"
)

type textRenderer struct{}

func NewText() Renderer { return textRenderer{} }

func (textRenderer) Format() Format      { return FormatTXT }
func (textRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (textRenderer) Render(w io.Writer, title string, lines []Line) error {
	bw := bufio.NewWriter(w)
	if title != "" {
		if _, err := bw.WriteString(title + "\n\n"); err != nil {
			return err
		}
	}
	for _, l := range lines {
		if _, err := bw.WriteString(FormatLine(l) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
