package report

import (
	"fmt"
	"strings"
	"time"
)

const (
	formLineH       = 5
	formHeadingH    = 10
	formItemTitleH  = 6
	formIndent      = 6
	formItemSpacing = 3
	formThreshold   = 30
	signatureH      = 36
)

var (
	formLabelFont = Font{"Helvetica", "B", 10}
	formValueFont = Font{"Helvetica", "", 10}
	formNoteFont  = Font{"Helvetica", "I", 8}
)

// form is the bilingual prescription sheet: unboxed, centred section titles,
// records as dashed list items and a signature area.
type form struct{}

func (form) decorate(d *document) {
	ls := d.ls
	y := ls.Limit() + 2
	d.c.SetDrawColor(muted)
	d.c.SetLineWidth(0.2)
	d.c.SetDash(nil)
	d.c.Line(ls.Margin, y, ls.PageWidth-ls.Margin, y)
}

func (form) opening(d *document) {
	c, ls := d.c, d.ls
	cx := ls.PageWidth / 2

	top := ls.AdvanceBlock("letterhead", 22)
	c.SetFont("Helvetica", "B", 16)
	c.SetTextColor(pink)
	c.Text(cx, top+6, clinicLines[0], AlignCenter)
	c.SetFont("Helvetica", "", 9)
	c.SetTextColor(darkGray)
	c.Text(cx, top+12, clinicLines[1]+", "+clinicLines[2], AlignCenter)
	c.Text(cx, top+17, clinicLines[3], AlignCenter)
	c.SetDrawColor(pink)
	c.SetLineWidth(0.5)
	c.Line(ls.Margin, top+21, ls.PageWidth-ls.Margin, top+21)

	top = ls.AdvanceBlock("title", 12)
	c.SetFont("Helvetica", "B", 14)
	c.SetTextColor(darkGray)
	c.Text(cx, top+8, d.labels().Title, AlignCenter)

	top = ls.AdvanceBlock("date", 8)
	c.SetFont("Helvetica", "", 10)
	c.Text(ls.PageWidth-ls.Margin, top+5, "Date : "+d.now.Format(d.style.DateLayout), AlignRight)
}

func (r form) section(d *document, s Section) {
	l := d.labels()
	switch s {
	case SectionPatient:
		b := r.list(d, "patient", r.patientRows(d))
		r.heading(d, l.Patient, b.Height())
		b.place(d)
	case SectionEmergency:
		if rows := r.emergencyRows(d); len(rows) > 0 {
			r.list(d, "emergency", rows).place(d)
		}
	case SectionHistory:
		if rows := r.historyRows(d); len(rows) > 0 {
			r.list(d, "history", rows).place(d)
		}
	case SectionPrescriptions:
		if len(d.in.Prescriptions) == 0 {
			return
		}
		items := make([]*box, len(d.in.Prescriptions))
		for i := range d.in.Prescriptions {
			items[i] = r.prescriptionItem(d, &d.in.Prescriptions[i])
		}
		r.heading(d, l.Prescriptions, items[0].Height())
		for _, b := range items {
			b.place(d)
		}
	case SectionTreatments:
		if len(d.in.Treatments) == 0 {
			return
		}
		items := make([]*box, len(d.in.Treatments))
		for i := range d.in.Treatments {
			items[i] = r.treatmentItem(d, &d.in.Treatments[i])
		}
		r.heading(d, l.Treatments, items[0].Height())
		for _, b := range items {
			b.place(d)
		}
	case SectionSignature:
		r.signature(d)
	case SectionNotice:
		r.notice(d)
	}
}

func (form) stamp(d *document, page, total int) {
	d.c.SetFont("Helvetica", "", 8)
	d.c.SetTextColor(darkGray)
	d.c.Text(d.ls.PageWidth/2, d.ls.Limit()+8, fmt.Sprintf("%d/%d", page, total), AlignCenter)
}

// heading draws a centred, underlined title.
func (form) heading(d *document, title string, next float64) {
	ls := d.ls
	need := formHeadingH + next
	if need > ls.Capacity() {
		need = formHeadingH + formThreshold
	}
	ls.EnsureRoom(need, formThreshold, d.newPage)

	top := ls.AdvanceBlock("heading", formHeadingH)
	cx := ls.PageWidth / 2
	c := d.c
	c.SetFont("Helvetica", "B", 12)
	c.SetTextColor(darkGray)
	c.Text(cx, top+6, title, AlignCenter)
	w := c.StringWidth(title)
	c.SetDrawColor(darkGray)
	c.SetLineWidth(0.3)
	c.SetDash(nil)
	c.Line(cx-w/2, top+7.2, cx+w/2, top+7.2)
}

// row is "Label : value" with the value wrapped under itself.
func (form) row(d *document, label, value string, width float64) []line {
	head := label + " : "
	formLabelFont.apply(d.c)
	indent := d.c.StringWidth(head)
	values := d.est.Lines(value, width-indent, formValueFont)

	rows := make([]line, 0, len(values))
	for i, v := range values {
		first := i == 0
		rows = append(rows, line{height: formLineH, draw: func(c Canvas, x, top float64) {
			if first {
				formLabelFont.apply(c)
				c.SetTextColor(darkGray)
				c.Text(x, top+3.5, head, AlignLeft)
			}
			formValueFont.apply(c)
			c.SetTextColor(darkGray)
			c.Text(x+indent, top+3.5, v, AlignLeft)
		}})
	}
	return rows
}

func (form) list(d *document, kind string, rows []line) *box {
	return &box{
		kind:      kind,
		full:      column{lines: rows},
		spacing:   formItemSpacing,
		threshold: formLineH,
	}
}

func (r form) patientRows(d *document) []line {
	p := d.in.Patient
	l := d.labels()
	w := d.ls.ContentWidth()

	rows := r.row(d, l.Name, p.FullName(), w)
	rows = append(rows, r.row(d, l.BirthDate, p.DateOfBirth, w)...)
	if age, ok := ageAt(p.DateOfBirth, d.now); ok {
		rows = append(rows, r.row(d, l.Age, fmt.Sprintf("%d ans / years", age), w)...)
	}
	rows = append(rows, r.row(d, l.Gender, capitalize(p.Gender), w)...)
	for _, f := range []struct {
		label string
		value *string
	}{
		{l.BloodType, p.BloodType},
		{l.Phone, p.Phone},
		{l.Email, p.Email},
		{l.Address, p.Address},
	} {
		if v, ok := present(f.value); ok {
			rows = append(rows, r.row(d, f.label, v, w)...)
		}
	}
	return rows
}

func (r form) emergencyRows(d *document) []line {
	p := d.in.Patient
	l := d.labels()
	w := d.ls.ContentWidth()
	var rows []line
	if v, ok := present(p.EmergencyContactName); ok {
		rows = append(rows, r.row(d, l.ContactName, v, w)...)
	}
	if v, ok := present(p.EmergencyContactPhone); ok {
		rows = append(rows, r.row(d, l.ContactPhone, v, w)...)
	}
	return rows
}

// historyRows omits empty lists; the form carries no fallback text.
func (r form) historyRows(d *document) []line {
	p := d.in.Patient
	l := d.labels()
	w := d.ls.ContentWidth()
	var rows []line
	for _, f := range []struct {
		label  string
		values []string
	}{
		{l.Allergies, p.Allergies},
		{l.MedicalHistory, p.MedicalHistory},
		{l.Medications, p.CurrentMedications},
	} {
		if len(f.values) == 0 {
			continue
		}
		rows = append(rows, r.row(d, f.label, strings.Join(f.values, ", "), w)...)
	}
	return rows
}

func (r form) item(d *document, kind, title string, rows []line) *box {
	b := r.list(d, kind, rows)
	b.full.offset = formIndent
	b.threshold = formItemTitleH + formLineH
	b.titleH = formItemTitleH
	cont := d.labels().Continued
	b.title = func(c Canvas, x, top float64, continued bool) {
		s := "- " + title
		if continued {
			s += " " + cont
		}
		c.SetFont("Helvetica", "B", 11)
		c.SetTextColor(pink)
		c.Text(x, top+4.5, s, AlignLeft)
	}
	return b
}

func (r form) prescriptionItem(d *document, rx *Prescription) *box {
	l := d.labels()
	w := d.ls.ContentWidth() - formIndent

	rows := r.row(d, l.Dosage, rx.Dosage, w)
	rows = append(rows, r.row(d, l.Frequency, rx.Frequency, w)...)
	rows = append(rows, r.row(d, l.Duration, rx.Duration, w)...)
	if v, ok := present(rx.Instructions); ok {
		rows = append(rows, r.row(d, l.Instructions, v, w)...)
	}
	rows = append(rows, r.row(d, l.Status, strings.ToUpper(rx.Status), w)...)
	rows = append(rows, r.row(d, l.PrescribedBy, rx.PrescribedByName, w)...)
	return r.item(d, "prescription", orFallback(rx.Medication, NA), rows)
}

func (r form) treatmentItem(d *document, tr *Treatment) *box {
	l := d.labels()
	w := d.ls.ContentWidth() - formIndent

	var rows []line
	if v := strings.TrimSpace(tr.Description); v != "" {
		rows = append(rows, r.row(d, l.Description, v, w)...)
	}
	if v, ok := present(tr.Diagnosis); ok {
		rows = append(rows, r.row(d, l.Diagnosis, v, w)...)
	}
	rows = append(rows, r.row(d, l.Priority, strings.ToUpper(tr.Priority), w)...)
	rows = append(rows, r.row(d, l.Status, strings.ToUpper(tr.Status), w)...)
	if v, ok := d.formatScheduled(tr.ScheduledDate); ok {
		rows = append(rows, r.row(d, l.Scheduled, v, w)...)
	}
	if v, ok := present(tr.Notes); ok {
		rows = append(rows, r.row(d, l.Notes, v, w)...)
	}
	rows = append(rows, r.row(d, l.CreatedBy, tr.CreatedByName, w)...)
	return r.item(d, "treatment", orFallback(tr.TreatmentType, NA), rows)
}

func (form) signature(d *document) {
	ls := d.ls
	ls.EnsureRoom(signatureH+8, 0, d.newPage)
	if !ls.AtTop() {
		ls.Skip(8)
	}
	top := ls.AdvanceBlock("signature", signatureH)

	c := d.c
	right := ls.PageWidth - ls.Margin
	c.SetFont("Helvetica", "", 9)
	c.SetTextColor(darkGray)
	c.Text(right, top+4, d.labels().Signature, AlignRight)

	x := ls.PageWidth / 2
	c.SetDrawColor(darkGray)
	c.SetLineWidth(0.3)
	c.SetDash([]float64{1, 1})
	c.Rect(x, top+7, right-x, signatureH-8, Stroke)
	c.SetDash(nil)
}

var formNotice = []string{
	"Document confidentiel - secret médical. Toute divulgation non autorisée est strictement interdite.",
	"Confidential document - medical secrecy. Unauthorized disclosure is strictly prohibited.",
}

func (form) notice(d *document) {
	ls := d.ls
	cx := ls.PageWidth / 2
	var rows []line
	for _, n := range formNotice {
		for _, s := range d.est.Lines(n, ls.ContentWidth(), formNoteFont) {
			rows = append(rows, centered(formNoteFont, muted, s, 4, 3, cx))
		}
	}
	b := &box{kind: "notice", padTop: 4, full: column{lines: rows}}
	b.place(d)
}

// ageAt returns completed years between a YYYY-MM-DD birth date and now.
func ageAt(dob string, now time.Time) (int, bool) {
	born, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(dob), now.Location())
	if err != nil || born.After(now) {
		return 0, false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age, true
}
