package report

import (
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// pdfEpoch is stamped as the document creation date so equal inputs encode
// to equal bytes.
var pdfEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type pdfCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFCanvas returns an A4 portrait canvas measured in millimetres, using
// the core Helvetica family with UTF-8 input translated to cp1252.
//
// The core fonts only cover cp1252: Western European letters print as
// written, anything outside it (CJK, Cyrillic, Greek, emoji) prints as "?".
// File names are built from the record, not from the drawn text, so they keep
// the original characters.
func NewPDFCanvas() Canvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetModificationDate(pdfEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("MediCare EMR", false)
	pdf.SetFont("Helvetica", "", 10)
	return &pdfCanvas{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (p *pdfCanvas) PageSize() (float64, float64) { return p.pdf.GetPageSize() }
func (p *pdfCanvas) AddPage()                     { p.pdf.AddPage() }
func (p *pdfCanvas) SetPage(n int)                { p.pdf.SetPage(n) }
func (p *pdfCanvas) PageCount() int               { return p.pdf.PageCount() }

func (p *pdfCanvas) SetFont(family, style string, size float64) {
	p.pdf.SetFont(family, style, size)
}

func (p *pdfCanvas) SetTextColor(c Color) { p.pdf.SetTextColor(c.R, c.G, c.B) }
func (p *pdfCanvas) SetFillColor(c Color) { p.pdf.SetFillColor(c.R, c.G, c.B) }
func (p *pdfCanvas) SetDrawColor(c Color) { p.pdf.SetDrawColor(c.R, c.G, c.B) }
func (p *pdfCanvas) SetLineWidth(w float64) {
	p.pdf.SetLineWidth(w)
}

func (p *pdfCanvas) SetDash(pattern []float64) {
	if pattern == nil {
		pattern = []float64{}
	}
	p.pdf.SetDashPattern(pattern, 0)
}

func (p *pdfCanvas) Text(x, y float64, s string, align Align) {
	p.pdf.Text(alignedX(p, x, s, align), y, p.tr(s))
}

func (p *pdfCanvas) Rect(x, y, w, h float64, style string) {
	p.pdf.Rect(x, y, w, h, style)
}

func (p *pdfCanvas) Line(x1, y1, x2, y2 float64) {
	p.pdf.Line(x1, y1, x2, y2)
}

func (p *pdfCanvas) StringWidth(s string) float64 {
	return p.pdf.GetStringWidth(p.tr(s))
}

func (p *pdfCanvas) SplitText(s string, width float64) []string {
	return WrapText(s, width, p.StringWidth)
}

func (p *pdfCanvas) Output(w io.Writer) error {
	if err := p.pdf.Error(); err != nil {
		return err
	}
	return p.pdf.Output(w)
}

func (p *pdfCanvas) Err() error {
	return p.pdf.Error()
}
