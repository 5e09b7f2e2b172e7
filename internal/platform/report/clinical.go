package report

import (
	"fmt"
	"strings"
)

var (
	pink      = Color{236, 72, 153}
	lightPink = Color{249, 168, 212}
	darkGray  = Color{55, 65, 81}
	lightGray = Color{243, 244, 246}
	muted     = Color{150, 150, 150}
	white     = Color{255, 255, 255}

	noticeFill = Color{254, 242, 242}
	noticeText = Color{220, 38, 38}

	statusColors = map[string]Color{
		"active":   {34, 197, 94},
		"inactive": {156, 163, 175},
		"critical": {239, 68, 68},
	}
)

// Clinic letterhead shared by both styles.
var clinicLines = [...]string{
	"MediCare Health System",
	"123 Healthcare Avenue, Suite 100",
	"Metropolis, NY 10001",
	"Phone: (123) 456-7890 | Email: contact@medicare.health",
	"Website: www.medicare.health",
}

const (
	headerBarH   = 8
	footerBandH  = 25
	sectionBarH  = 8
	sectionGap   = 5
	boxPadTop    = 2
	boxPadBottom = 3
	titleH       = 6
	nameTitleH   = 8
	labelH       = 4
	lineH        = 4
	rowGap       = 2
	fullGap      = 2
	boxSpacing   = 5
	groupSpacing = 8
	noticeGap    = 10
	// sectionThreshold keeps a section heading from starting at the foot
	// of a page.
	sectionThreshold = 70
	boxThreshold     = 20
)

var (
	labelFont = Font{"Helvetica", "B", 8}
	valueFont = Font{"Helvetica", "", 9}
)

type clinical struct{}

func (clinical) decorate(d *document) {
	c := d.c
	w, h := d.ls.PageWidth, d.ls.PageHeight
	m := d.ls.Margin

	c.SetFillColor(pink)
	c.Rect(0, 0, w, headerBarH, Fill)

	fy := h - footerBandH
	c.SetFillColor(lightGray)
	c.Rect(0, fy, w, footerBandH, Fill)

	c.SetTextColor(darkGray)
	c.SetFont("Helvetica", "B", 8)
	c.Text(m, fy+6, clinicLines[0], AlignLeft)
	c.SetFont("Helvetica", "", 7)
	for i, l := range clinicLines[1:] {
		c.Text(m, fy+11+float64(i)*4, l, AlignLeft)
	}

	c.SetFont("Helvetica", "", 6)
	c.SetTextColor(muted)
	c.Text(w/2, fy+6, "For appointments, billing inquiries, or medical assistance, please contact us", AlignCenter)
	c.Text(w/2, fy+10, "Thank you for choosing MediCare Health System for your healthcare needs.", AlignCenter)
}

func (clinical) opening(d *document) {
	c, ls := d.c, d.ls

	top := ls.AdvanceBlock("date", 6)
	c.SetFont("Helvetica", "", 9)
	c.SetTextColor(darkGray)
	c.Text(ls.PageWidth-ls.Margin, top+4, d.now.Format(d.style.DateLayout), AlignRight)

	top = ls.AdvanceBlock("title", 12)
	c.SetFont("Helvetica", "B", 18)
	c.SetTextColor(pink)
	c.Text(ls.Margin, top+7, d.labels().Title, AlignLeft)
}

func (r clinical) section(d *document, s Section) {
	l := d.labels()
	p := d.in.Patient
	switch s {
	case SectionPatient:
		b := r.patientBox(d)
		r.heading(d, l.Patient, b.Height())
		b.place(d)
	case SectionEmergency:
		if b := r.emergencyBox(d); b != nil {
			r.heading(d, l.Emergency, b.Height())
			b.place(d)
		}
	case SectionHistory:
		b := r.historyBox(d, p)
		r.heading(d, l.History, b.Height())
		b.place(d)
	case SectionPrescriptions:
		if len(d.in.Prescriptions) == 0 {
			return
		}
		boxes := make([]*box, len(d.in.Prescriptions))
		for i := range d.in.Prescriptions {
			boxes[i] = r.prescriptionBox(d, &d.in.Prescriptions[i])
		}
		r.heading(d, l.Prescriptions, boxes[0].Height())
		for _, b := range boxes {
			b.place(d)
		}
	case SectionTreatments:
		if len(d.in.Treatments) == 0 {
			return
		}
		boxes := make([]*box, len(d.in.Treatments))
		for i := range d.in.Treatments {
			boxes[i] = r.treatmentBox(d, &d.in.Treatments[i])
		}
		r.heading(d, l.Treatments, boxes[0].Height())
		for _, b := range boxes {
			b.place(d)
		}
	case SectionNotice:
		b := r.noticeBox()
		d.ls.EnsureRoom(noticeGap+b.Height(), 0, d.newPage)
		if !d.ls.AtTop() {
			d.ls.Skip(noticeGap)
		}
		b.place(d)
	}
}

func (clinical) stamp(d *document, page, total int) {
	d.c.SetFont("Helvetica", "", 8)
	d.c.SetTextColor(darkGray)
	d.c.Text(d.ls.PageWidth-d.ls.Margin, d.ls.PageHeight-8, pageOf(page, total), AlignRight)
}

func pageOf(page, total int) string {
	return fmt.Sprintf("Page %d of %d", page, total)
}

// heading draws a section bar, keeping it on the same page as at least the
// start of the content that follows.
func (clinical) heading(d *document, title string, next float64) {
	ls := d.ls
	need := sectionBarH + sectionGap + next
	if need > ls.Capacity() {
		need = sectionBarH + sectionGap + boxThreshold
	}
	ls.EnsureRoom(need, sectionThreshold, d.newPage)

	top := ls.AdvanceBlock("section", sectionBarH)
	d.c.SetFillColor(pink)
	d.c.Rect(ls.Margin, top, ls.ContentWidth(), sectionBarH, Fill)
	d.c.SetFont("Helvetica", "B", 11)
	d.c.SetTextColor(white)
	d.c.Text(ls.Margin+3, top+5.5, title, AlignLeft)
	ls.Skip(sectionGap)
}

// field is a bold label row followed by the wrapped value.
func (clinical) field(d *document, label, value string, width float64) []line {
	rows := []line{text(labelFont, darkGray, label, labelH, 3, 0)}
	for _, v := range d.est.Lines(value, width-5, valueFont) {
		rows = append(rows, text(valueFont, darkGray, v, lineH, 3, 0))
	}
	return rows
}

func (r clinical) columnWidth(d *document) float64 {
	return d.ls.ContentWidth()/2 - 8
}

func (r clinical) fullWidth(d *document) float64 {
	return d.ls.ContentWidth() - 6
}

func (r clinical) frame(d *document, kind string, spacing float64) *box {
	return &box{
		kind:      kind,
		padTop:    boxPadTop,
		padBottom: boxPadBottom,
		fullGap:   fullGap,
		border:    &lightPink,
		borderW:   0.5,
		spacing:   spacing,
		threshold: boxThreshold,
		full:      column{offset: 3},
	}
}

func (r clinical) columns(d *document, left, right []line) []column {
	return []column{
		{offset: 3, lines: left},
		{offset: d.ls.ContentWidth()/2 + 5, lines: right},
	}
}

func (r clinical) titled(b *box, d *document, title string, h float64, draw func(c Canvas, x, baseline float64)) {
	cont := d.labels().Continued
	b.titleH = h
	b.title = func(c Canvas, x, top float64, continued bool) {
		c.SetFont("Helvetica", "B", 11)
		c.SetTextColor(pink)
		if continued {
			c.Text(x+3, top+4, title+" "+cont, AlignLeft)
			return
		}
		draw(c, x+3, top+4)
	}
}

func (r clinical) patientBox(d *document) *box {
	p := d.in.Patient
	l := d.labels()
	cw := r.columnWidth(d)

	left := [][]line{
		r.field(d, l.BirthDate, p.DateOfBirth, cw),
		r.field(d, l.Gender, capitalize(p.Gender), cw),
	}
	if v, ok := present(p.Phone); ok {
		left = append(left, r.field(d, l.Phone, v, cw))
	}
	var right [][]line
	if v, ok := present(p.BloodType); ok {
		right = append(right, r.field(d, l.BloodType, v, cw))
	}
	if v, ok := present(p.Email); ok {
		right = append(right, r.field(d, l.Email, v, cw))
	}
	if v, ok := present(p.Address); ok {
		right = append(right, r.field(d, l.Address, v, cw))
	}

	b := r.frame(d, "patient", groupSpacing)
	b.cols = r.columns(d, joinRows(rowGap, left...), joinRows(rowGap, right...))

	name := p.FullName()
	status := strings.ToLower(strings.TrimSpace(p.Status))
	if status == "" {
		status = "active"
	}
	badge, ok := statusColors[status]
	if !ok {
		badge = statusColors["active"]
	}
	r.titled(b, d, name, nameTitleH, func(c Canvas, x, baseline float64) {
		c.SetFont("Helvetica", "B", 14)
		c.SetTextColor(pink)
		c.Text(x, baseline+1, name, AlignLeft)
		bx := x + c.StringWidth(name) + 3

		label := strings.ToUpper(status)
		c.SetFont("Helvetica", "B", 7)
		c.SetFillColor(badge)
		c.Rect(bx, baseline-3, c.StringWidth(label)+4, 5, Fill)
		c.SetTextColor(white)
		c.Text(bx+2, baseline+0.5, label, AlignLeft)
	})
	return b
}

func (r clinical) emergencyBox(d *document) *box {
	p := d.in.Patient
	l := d.labels()
	name, hasName := present(p.EmergencyContactName)
	phone, hasPhone := present(p.EmergencyContactPhone)
	if !hasName && !hasPhone {
		return nil
	}
	cw := r.columnWidth(d)
	var left, right []line
	if hasName {
		left = r.field(d, l.ContactName, name, cw)
	}
	if hasPhone {
		right = r.field(d, l.ContactPhone, phone, cw)
	}
	b := r.frame(d, "emergency", groupSpacing)
	b.padTop = boxPadTop + 1
	b.cols = r.columns(d, left, right)
	return b
}

func (r clinical) historyBox(d *document, p *Patient) *box {
	l := d.labels()
	fw := r.fullWidth(d)
	history := orFallback(strings.Join(p.MedicalHistory, ", "), l.NoHistory)
	allergies := orFallback(strings.Join(p.Allergies, ", "), l.NoAllergies)

	b := r.frame(d, "history", groupSpacing)
	b.padTop = boxPadTop + 1
	b.full.lines = joinRows(rowGap,
		r.field(d, l.MedicalHistory, history, fw),
		r.field(d, l.Allergies, allergies, fw),
	)
	return b
}

func (r clinical) prescriptionBox(d *document, rx *Prescription) *box {
	l := d.labels()
	cw := r.columnWidth(d)

	b := r.frame(d, "prescription", boxSpacing)
	b.cols = r.columns(d,
		joinRows(rowGap,
			r.field(d, l.Dosage, rx.Dosage, cw),
			r.field(d, l.Frequency, rx.Frequency, cw),
			r.field(d, l.Duration, rx.Duration, cw),
		),
		joinRows(rowGap,
			r.field(d, l.Status, strings.ToUpper(rx.Status), cw),
			r.field(d, l.PrescribedBy, rx.PrescribedByName, cw),
		),
	)
	if v, ok := present(rx.Instructions); ok {
		b.full.lines = r.field(d, l.Instructions, v, r.fullWidth(d))
	}
	title := orFallback(rx.Medication, NA)
	r.titled(b, d, title, titleH, func(c Canvas, x, baseline float64) {
		c.Text(x, baseline, title, AlignLeft)
	})
	return b
}

func (r clinical) treatmentBox(d *document, tr *Treatment) *box {
	l := d.labels()
	cw := r.columnWidth(d)

	var left [][]line
	if v := strings.TrimSpace(tr.Description); v != "" {
		left = append(left, r.field(d, l.Description, v, cw))
	}
	if v, ok := present(tr.Diagnosis); ok {
		left = append(left, r.field(d, l.Diagnosis, v, cw))
	}
	right := [][]line{
		r.field(d, l.Priority, strings.ToUpper(tr.Priority), cw),
		r.field(d, l.Status, strings.ToUpper(tr.Status), cw),
	}
	if v, ok := d.formatScheduled(tr.ScheduledDate); ok {
		right = append(right, r.field(d, l.Scheduled, v, cw))
	}
	right = append(right, r.field(d, l.CreatedBy, tr.CreatedByName, cw))

	b := r.frame(d, "treatment", boxSpacing)
	b.cols = r.columns(d, joinRows(rowGap, left...), joinRows(rowGap, right...))
	if v, ok := present(tr.Notes); ok {
		b.full.lines = r.field(d, l.Notes, v, r.fullWidth(d))
	}
	title := orFallback(tr.TreatmentType, NA)
	r.titled(b, d, title, titleH, func(c Canvas, x, baseline float64) {
		c.Text(x, baseline, title, AlignLeft)
	})
	return b
}

func (clinical) noticeBox() *box {
	bold := Font{"Helvetica", "B", 8}
	small := Font{"Helvetica", "", 7}
	return &box{
		kind:      "notice",
		fill:      &noticeFill,
		padBottom: 2,
		full: column{offset: 3, lines: []line{
			text(bold, noticeText, "CONFIDENTIAL MEDICAL RECORD", 8, 6, 0),
			text(small, darkGray, "This document contains protected health information (PHI) under HIPAA regulations.", 5, 3, 0),
			text(small, darkGray, "Unauthorized disclosure is strictly prohibited. For authorized personnel only.", 5, 3, 0),
		}},
	}
}
