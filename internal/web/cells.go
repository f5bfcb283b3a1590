package web

import (
	"io"
	"unicode/utf8"

	"github.com/a-h/templ"
)

type CellKind int

const (
	PlainText CellKind = iota
	MarkupText
	ImageDataURI
)

const PreviewLimit = 100

// Cell is one admin table value. Markup cells are trusted HTML produced by
// the waiver editor; every other kind is escaped.
type Cell struct {
	Kind CellKind
	Text string
}

func Plain(text string) Cell  { return Cell{Kind: PlainText, Text: text} }
func Markup(text string) Cell { return Cell{Kind: MarkupText, Text: text} }
func Image(uri string) Cell   { return Cell{Kind: ImageDataURI, Text: uri} }

// Preview returns at most PreviewLimit runes of the cell text and whether
// anything was cut.
func (c Cell) Preview() (string, bool) {
	if utf8.RuneCountInString(c.Text) <= PreviewLimit {
		return c.Text, false
	}
	runes := []rune(c.Text)
	return string(runes[:PreviewLimit]), true
}

// writeFull writes the whole cell with no preview cut.
func (c Cell) writeFull(w io.Writer) {
	switch c.Kind {
	case MarkupText:
		_, _ = io.WriteString(w, c.Text)
	case ImageDataURI:
		_, _ = io.WriteString(w, `<img src="`+templ.EscapeString(c.Text)+`" alt=""/>`)
	default:
		_, _ = io.WriteString(w, templ.EscapeString(c.Text))
	}
}

func (c Cell) render(w io.Writer) {
	switch c.Kind {
	case ImageDataURI:
		if c.Text == "" {
			_, _ = io.WriteString(w, "-")
			return
		}
		_, _ = io.WriteString(w, `<a href="#" class="view-more" data-image="`+templ.EscapeString(c.Text)+`">View Signature</a>`)
	case MarkupText:
		short, cut := c.Preview()
		if !cut {
			_, _ = io.WriteString(w, `<div class="markup">`+c.Text+`</div>`)
			return
		}
		_, _ = io.WriteString(w, templ.EscapeString(short)+`... `)
		_, _ = io.WriteString(w, `<a href="#" class="view-more">View More</a><template>`+c.Text+`</template>`)
	default:
		short, cut := c.Preview()
		_, _ = io.WriteString(w, templ.EscapeString(short))
		if cut {
			_, _ = io.WriteString(w, `... <a href="#" class="view-more">View More</a><template>`+templ.EscapeString(c.Text)+`</template>`)
		}
	}
}
