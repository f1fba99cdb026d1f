package pdf

import (
	"bytes"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator lets services swap out PDF rendering in tests.
type Generator interface {
	GenerateEntry(data EntryData) ([]byte, error)
}

type EntryData struct {
	Title      string
	Author     string
	Body       string
	FontFamily string
	FontStyle  string
	FontWeight string
	Date       time.Time
}

type EntryGenerator struct{}

func NewEntryGenerator() *EntryGenerator { return &EntryGenerator{} }

func (g *EntryGenerator) GenerateEntry(data EntryData) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(data.Title, true)
	doc.SetAuthor(data.Author, true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	family := coreFamily(data.FontFamily)
	style := fontStyle(data.FontWeight, data.FontStyle)

	doc.SetFont(family, "B", 18)
	doc.CellFormat(0, 10, data.Title, "", 1, "L", false, 0, "")

	doc.SetFont(family, "", 11)
	sub := data.Date.Format("January 2, 2006")
	if data.Author != "" {
		sub = data.Author + "  ·  " + sub
	}
	doc.CellFormat(0, 7, sub, "", 1, "L", false, 0, "")
	g.hr(doc)
	doc.Ln(3)

	doc.SetFont(family, style, 12)
	doc.MultiCell(0, 6, data.Body, "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *EntryGenerator) hr(doc *gofpdf.Fpdf) {
	x, y := doc.GetXY()
	doc.SetDrawColor(180, 180, 180)
	doc.Line(20, y, 190, y)
	doc.SetXY(x, y+2)
}

// coreFamily maps a CSS-ish family to one of the built-in PDF core fonts.
func coreFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "times"), strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		return "Times"
	case strings.Contains(f, "courier"), strings.Contains(f, "mono"):
		return "Courier"
	default:
		return "Arial"
	}
}

func fontStyle(weight, style string) string {
	out := ""
	if strings.EqualFold(weight, "bold") {
		out += "B"
	}
	if strings.EqualFold(style, "italic") {
		out += "I"
	}
	return out
}
