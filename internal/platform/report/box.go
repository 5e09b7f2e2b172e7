package report

// line is one unbreakable row of box content. draw receives the column's
// left edge and the top of the row.
type line struct {
	height float64
	draw   func(c Canvas, x, top float64)
}

func spacer(h float64) line {
	return line{height: h}
}

type column struct {
	offset float64
	lines  []line
}

func (c column) height() float64 {
	var h float64
	for _, l := range c.lines {
		h += l.height
	}
	return h
}

// box is a titled region with parallel columns followed by full-width rows.
// Its height is computed from the rows it holds before anything is drawn.
// When it does not fit on one page the rows flow into continuation pieces,
// each drawn with its own border and a continued title.
type box struct {
	kind      string
	titleH    float64
	title     func(c Canvas, x, top float64, continued bool)
	cols      []column
	full      column
	fullGap   float64
	padTop    float64
	padBottom float64
	border    *Color
	borderW   float64
	fill      *Color
	spacing   float64
	threshold float64
}

func (b *box) columnsHeight() float64 {
	var h float64
	for _, c := range b.cols {
		if ch := c.height(); ch > h {
			h = ch
		}
	}
	return h
}

// Height is the height of the box when drawn in one piece.
func (b *box) Height() float64 {
	h := b.padTop + b.titleH + b.columnsHeight() + b.padBottom
	if len(b.full.lines) > 0 {
		if b.columnsHeight() > 0 {
			h += b.fullGap
		}
		h += b.full.height()
	}
	return h
}

func (b *box) place(d *document) {
	ls := d.ls
	if h := b.Height(); h <= ls.Capacity() {
		ls.EnsureRoom(h, b.threshold, d.newPage)
	} else {
		ls.EnsureRoom(0, b.threshold, d.newPage)
	}

	cursors := make([]int, len(b.cols))
	fi := 0
	continued := false
	for {
		avail := ls.Remaining() - b.padTop - b.titleH - b.padBottom
		starts := append([]int(nil), cursors...)
		var body float64
		for i, col := range b.cols {
			var used float64
			for cursors[i] < len(col.lines) && used+col.lines[cursors[i]].height <= avail {
				used += col.lines[cursors[i]].height
				cursors[i]++
			}
			if used > body {
				body = used
			}
		}

		colsDone := true
		for i, col := range b.cols {
			if cursors[i] < len(col.lines) {
				colsDone = false
			}
		}

		fullStart := fi
		var gap, fullUsed float64
		if colsDone && fi < len(b.full.lines) {
			if fi == 0 && body > 0 {
				gap = b.fullGap
			}
			for fi < len(b.full.lines) && body+gap+fullUsed+b.full.lines[fi].height <= avail {
				fullUsed += b.full.lines[fi].height
				fi++
			}
			if fi == fullStart {
				gap = 0
			}
		}

		progressed := fi > fullStart
		for i := range cursors {
			if cursors[i] > starts[i] {
				progressed = true
			}
		}
		if !progressed && !b.empty() {
			if !ls.AtTop() {
				ls.NewPage(d.newPage)
				continue
			}
			// A single row taller than a page. Take it anyway; the overflow
			// check in Generate rejects the document.
			body, fullUsed = b.forceOne(cursors, &fi)
		}

		h := b.padTop + b.titleH + body + gap + fullUsed + b.padBottom
		top := ls.AdvanceBlock(b.kind, h)
		b.drawPiece(d.c, ls.Margin, top, ls.ContentWidth(), h, continued, starts, cursors, fullStart, fi, body+gap)

		if b.done(cursors, fi) {
			ls.Skip(b.spacing)
			return
		}
		ls.NewPage(d.newPage)
		continued = true
	}
}

func (b *box) empty() bool {
	if len(b.full.lines) > 0 {
		return false
	}
	for _, c := range b.cols {
		if len(c.lines) > 0 {
			return false
		}
	}
	return true
}

func (b *box) done(cursors []int, fi int) bool {
	for i, col := range b.cols {
		if cursors[i] < len(col.lines) {
			return false
		}
	}
	return fi >= len(b.full.lines)
}

func (b *box) forceOne(cursors []int, fi *int) (body, full float64) {
	for i, col := range b.cols {
		if cursors[i] < len(col.lines) {
			cursors[i]++
			return col.lines[cursors[i]-1].height, 0
		}
	}
	*fi++
	return 0, b.full.lines[*fi-1].height
}

func (b *box) drawPiece(c Canvas, x, top, w, h float64, continued bool, starts, ends []int, fullStart, fullEnd int, fullOffset float64) {
	if b.fill != nil {
		c.SetFillColor(*b.fill)
		c.Rect(x, top, w, h, Fill)
	}
	if b.border != nil {
		c.SetDrawColor(*b.border)
		c.SetLineWidth(b.borderW)
		c.Rect(x, top, w, h, Stroke)
	}
	if b.title != nil {
		b.title(c, x, top+b.padTop, continued)
	}
	bodyTop := top + b.padTop + b.titleH
	for i, col := range b.cols {
		y := bodyTop
		for _, l := range col.lines[starts[i]:ends[i]] {
			if l.draw != nil {
				l.draw(c, x+col.offset, y)
			}
			y += l.height
		}
	}
	y := bodyTop + fullOffset
	for _, l := range b.full.lines[fullStart:fullEnd] {
		if l.draw != nil {
			l.draw(c, x+b.full.offset, y)
		}
		y += l.height
	}
}
