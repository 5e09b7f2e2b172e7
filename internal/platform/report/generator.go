package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result is a generated report. Content is only set when generation
// succeeded as a whole.
type Result struct {
	FileName string
	Content  []byte
	Pages    int
	Blocks   []Block
	Style    string
}

type options struct {
	clock     func() time.Time
	loc       *time.Location
	newCanvas func() Canvas
	logger    zerolog.Logger
}

type Option func(*options)

// WithClock sets the source of the generation date.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithLocation sets the zone dates are rendered in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithCanvasFactory(f func() Canvas) Option {
	return func(o *options) { o.newCanvas = f }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Generate lays out the record set in the given style and encodes it. Each
// call owns its canvas and layout state; nothing is shared between calls.
func Generate(in Input, style Style, opts ...Option) (res *Result, err error) {
	o := options{
		clock:     time.Now,
		loc:       time.UTC,
		newCanvas: NewPDFCanvas,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if style.render == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style.Name)
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &RenderError{Op: "draw", Err: fmt.Errorf("%v", r)}
		}
	}()

	c := o.newCanvas()
	w, h := c.PageSize()
	d := &document{
		c:     c,
		ls:    NewLayoutState(w, h, style.Geometry),
		est:   NewEstimator(c),
		style: &style,
		in:    in,
		now:   o.clock().In(o.loc),
		loc:   o.loc,
	}

	c.AddPage()
	style.render.decorate(d)
	style.render.opening(d)
	for _, s := range style.Sections {
		style.render.section(d, s)
	}

	pages := c.PageCount()
	for i := 1; i <= pages; i++ {
		c.SetPage(i)
		style.render.stamp(d, i, pages)
	}

	if err := c.Err(); err != nil {
		return nil, &RenderError{Op: "draw", Err: err}
	}
	if b, over := d.ls.Overflow(); over {
		return nil, &RenderError{Op: "layout", Err: fmt.Errorf(
			"%s block on page %d ends at %.1f, below %.1f", b.Kind, b.Page, b.Bottom(), d.ls.Limit())}
	}

	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return nil, &RenderError{Op: "output", Err: err}
	}

	res = &Result{
		FileName: FileName(style.FilePrefix, in.Patient, d.now),
		Content:  buf.Bytes(),
		Pages:    pages,
		Blocks:   d.ls.Blocks,
		Style:    style.Name,
	}
	o.logger.Debug().
		Str("style", style.Name).
		Str("file", res.FileName).
		Int("pages", pages).
		Int("prescriptions", len(in.Prescriptions)).
		Int("treatments", len(in.Treatments)).
		Int("bytes", len(res.Content)).
		Msg("report generated")
	return res, nil
}

func validate(in Input) error {
	p := in.Patient
	if p == nil || strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return ErrMissingPatientName
	}
	if p.ID == uuid.Nil {
		return nil
	}
	for _, rx := range in.Prescriptions {
		if rx.PatientID != p.ID {
			return fmt.Errorf("%w: prescription %s", ErrForeignRecord, rx.ID)
		}
	}
	for _, tr := range in.Treatments {
		if tr.PatientID != p.ID {
			return fmt.Errorf("%w: treatment %s", ErrForeignRecord, tr.ID)
		}
	}
	return nil
}
