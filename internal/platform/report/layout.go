package report

// Block is one vertical reservation made through the layout cursor.
type Block struct {
	Kind   string  `json:"kind"`
	Page   int     `json:"page"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

func (b Block) Bottom() float64 { return b.Top + b.Height }

// LayoutState is the write position of a document being generated. It is
// owned by a single Generate call and threaded through every renderer.
type LayoutState struct {
	Page       int
	Y          float64
	PageWidth  float64
	PageHeight float64
	Margin     float64
	// Top is where Y resets to on a new page.
	Top float64
	// Reserve is kept free above the bottom margin for page decoration.
	Reserve float64

	Blocks []Block
}

func NewLayoutState(pageWidth, pageHeight float64, g Geometry) *LayoutState {
	return &LayoutState{
		Page:       1,
		Y:          g.Top,
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
		Margin:     g.Margin,
		Top:        g.Top,
		Reserve:    g.Reserve,
	}
}

// Limit is the lowest y any block may reach.
func (s *LayoutState) Limit() float64 {
	return s.PageHeight - s.Margin - s.Reserve
}

func (s *LayoutState) Remaining() float64 {
	return s.Limit() - s.Y
}

// Capacity is the usable height of an empty page.
func (s *LayoutState) Capacity() float64 {
	return s.Limit() - s.Top
}

func (s *LayoutState) ContentWidth() float64 {
	return s.PageWidth - 2*s.Margin
}

// AtTop reports whether nothing has been placed on the current page yet.
func (s *LayoutState) AtTop() bool {
	return s.Y <= s.Top
}

// Advance reserves h units and returns the y the reservation starts at.
func (s *LayoutState) Advance(h float64) float64 {
	return s.AdvanceBlock("", h)
}

func (s *LayoutState) AdvanceBlock(kind string, h float64) float64 {
	top := s.Y
	s.Blocks = append(s.Blocks, Block{Kind: kind, Page: s.Page, Top: top, Height: h})
	s.Y += h
	return top
}

// Skip moves the cursor without recording a block. It never moves past Limit.
func (s *LayoutState) Skip(h float64) {
	s.Y += h
	if s.Y > s.Limit() {
		s.Y = s.Limit()
	}
}

// EnsureRoom starts a new page when less than max(height, threshold) is left
// on the current one. A fresh page is never broken again, so a height larger
// than Capacity returns false and the caller has to split its content.
func (s *LayoutState) EnsureRoom(height, threshold float64, onBreak func(page int)) bool {
	need := height
	if threshold > need {
		need = threshold
	}
	if s.Remaining() >= need || s.AtTop() {
		return false
	}
	s.NewPage(onBreak)
	return true
}

func (s *LayoutState) NewPage(onBreak func(page int)) {
	s.Page++
	s.Y = s.Top
	if onBreak != nil {
		onBreak(s.Page)
	}
}

// Overflow returns the first block that ends below Limit, if any.
func (s *LayoutState) Overflow() (Block, bool) {
	const epsilon = 1e-6
	for _, b := range s.Blocks {
		if b.Bottom() > s.Limit()+epsilon {
			return b, true
		}
	}
	return Block{}, false
}
