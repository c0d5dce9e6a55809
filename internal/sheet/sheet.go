// Package sheet renders printable QR label sheets for box serials.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"github.com/hhoikoo/serial-scanner/internal/payload"
)

// ErrInvalidLayout is returned when a layout cannot fit any label.
var ErrInvalidLayout = errors.New("invalid sheet layout")

const (
	qrImagePixels = 256
	captionPtSize = 8
)

// Layout describes how labels are arranged on a page. All lengths are in
// millimeters.
type Layout struct {
	PageSize      string // fpdf page size name: "A4" or "Letter"
	Columns       int
	Rows          int
	MarginMM      float64
	GapMM         float64
	LabelHeightMM float64 // caption strip below each code
}

// DefaultLayout is an A4 portrait sheet of 4x6 labels.
func DefaultLayout() Layout {
	return Layout{
		PageSize:      "A4",
		Columns:       4,
		Rows:          6,
		MarginMM:      10,
		GapMM:         4,
		LabelHeightMM: 6,
	}
}

func (l Layout) pageSizeMM() (w, h float64) {
	switch l.PageSize {
	case "Letter", "letter":
		return 215.9, 279.4
	default:
		return 210, 297
	}
}

// PerPage returns how many labels fit on one page.
func (l Layout) PerPage() int {
	return l.Columns * l.Rows
}

// PageCount returns the number of pages needed for n labels.
func (l Layout) PageCount(n int) int {
	per := l.PerPage()
	if per <= 0 || n <= 0 {
		return 0
	}
	return (n + per - 1) / per
}

// CellRect returns the cell rectangle for label slot i on its page, in
// millimeters from the page's top-left corner. Slots fill left to right,
// top to bottom; slot numbering continues across pages.
func (l Layout) CellRect(i int) (x, y, w, h float64) {
	pageW, pageH := l.pageSizeMM()
	slot := i % l.PerPage()
	col := slot % l.Columns
	row := slot / l.Columns

	w = (pageW - 2*l.MarginMM - float64(l.Columns-1)*l.GapMM) / float64(l.Columns)
	h = (pageH - 2*l.MarginMM - float64(l.Rows-1)*l.GapMM) / float64(l.Rows)
	x = l.MarginMM + float64(col)*(w+l.GapMM)
	y = l.MarginMM + float64(row)*(h+l.GapMM)
	return x, y, w, h
}

func (l Layout) validate() error {
	if l.Columns < 1 || l.Rows < 1 {
		return fmt.Errorf("%w: needs at least one column and one row", ErrInvalidLayout)
	}
	_, _, w, h := l.CellRect(0)
	if w <= 0 || h-l.LabelHeightMM <= 0 {
		return fmt.Errorf("%w: margins and gaps leave no room for a label", ErrInvalidLayout)
	}
	return nil
}

// Generate writes a PDF label sheet for the serials to w. Each label is
// the serial's QR payload with the serial printed underneath.
func Generate(w io.Writer, serials []string, layout Layout) error {
	doc, err := buildDoc(serials, layout)
	if err != nil {
		return err
	}
	return doc.Output(w)
}

// GenerateFile writes a PDF label sheet for the serials to path.
func GenerateFile(path string, serials []string, layout Layout) error {
	doc, err := buildDoc(serials, layout)
	if err != nil {
		return err
	}
	return doc.OutputFileAndClose(path)
}

func buildDoc(serials []string, layout Layout) (*fpdf.Fpdf, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	if len(serials) == 0 {
		return nil, fmt.Errorf("no serials to render")
	}

	doc := fpdf.New("P", "mm", layout.PageSize, "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont("Helvetica", "", captionPtSize)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	per := layout.PerPage()
	for i, serial := range serials {
		if i%per == 0 {
			doc.AddPage()
		}

		text, err := payload.Encode(serial)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", serial, err)
		}

		png, err := qrcode.Encode(text, qrcode.Medium, qrImagePixels)
		if err != nil {
			return nil, fmt.Errorf("failed to render QR for %q: %w", serial, err)
		}

		x, y, w, h := layout.CellRect(i)
		side := math.Min(w, h-layout.LabelHeightMM)

		name := fmt.Sprintf("qr-%d", i)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		doc.ImageOptions(name, x+(w-side)/2, y, side, side, false, opts, 0, "")

		doc.SetXY(x, y+side)
		doc.CellFormat(w, layout.LabelHeightMM, tr(serial), "", 0, "C", false, 0, "")
	}

	if doc.Err() {
		return nil, fmt.Errorf("failed to assemble sheet: %v", doc.Error())
	}
	return doc, nil
}
