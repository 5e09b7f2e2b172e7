package report

import "io"

// Color is an RGB triple, 0-255 per channel.
type Color struct{ R, G, B int }

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Rect styles.
const (
	Stroke     = "D"
	Fill       = "F"
	FillStroke = "DF"
)

// Canvas is the drawing surface a report is laid out on. Coordinates are in
// page units (millimetres for the PDF canvas) with the origin at the top left;
// Text places its baseline at y.
type Canvas interface {
	PageSize() (width, height float64)
	AddPage()
	SetPage(n int)
	PageCount() int

	SetFont(family, style string, size float64)
	SetTextColor(c Color)
	SetFillColor(c Color)
	SetDrawColor(c Color)
	SetLineWidth(w float64)
	// SetDash sets a dash pattern for subsequent strokes; nil restores solid lines.
	SetDash(pattern []float64)

	Text(x, y float64, s string, align Align)
	Rect(x, y, w, h float64, style string)
	Line(x1, y1, x2, y2 float64)

	StringWidth(s string) float64
	SplitText(s string, width float64) []string

	Output(w io.Writer) error
	Err() error
}

// Font selects a face and size on a canvas.
type Font struct {
	Family string
	Style  string
	Size   float64
}

func (f Font) apply(c Canvas) {
	c.SetFont(f.Family, f.Style, f.Size)
}

// alignedX converts an anchor x into the left edge of s for the given alignment.
func alignedX(c Canvas, x float64, s string, align Align) float64 {
	switch align {
	case AlignCenter:
		return x - c.StringWidth(s)/2
	case AlignRight:
		return x - c.StringWidth(s)
	default:
		return x
	}
}
