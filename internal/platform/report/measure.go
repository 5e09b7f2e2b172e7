package report

import "strings"

// NA is the default text for a blank value.
const NA = "N/A"

// WrapText breaks s into lines no wider than width, as measured by measure.
// Explicit newlines are kept. Words wider than a whole line are broken
// between runes. Both the height estimator and the renderers wrap through
// this function, so an estimate always matches what gets drawn.
func WrapText(s string, width float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, w := range words {
			candidate := w
			if current != "" {
				candidate = current + " " + w
			}
			if measure(candidate) <= width {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			if measure(w) <= width {
				current = w
				continue
			}
			pieces := breakWord(w, width, measure)
			lines = append(lines, pieces[:len(pieces)-1]...)
			current = pieces[len(pieces)-1]
		}
		lines = append(lines, current)
	}
	return lines
}

func breakWord(w string, width float64, measure func(string) float64) []string {
	var out []string
	var cur []rune
	for _, r := range w {
		if len(cur) > 0 && measure(string(append(cur, r))) > width {
			out = append(out, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	return append(out, string(cur))
}

// Estimator predicts the vertical space text will take on a canvas.
type Estimator struct {
	c Canvas
}

func NewEstimator(c Canvas) Estimator {
	return Estimator{c: c}
}

// Lines wraps text in the given font. Blank text is replaced by NA.
func (e Estimator) Lines(text string, width float64, font Font) []string {
	font.apply(e.c)
	return e.c.SplitText(orFallback(text, NA), width)
}

// Height is len(Lines) * lineHeight.
func (e Estimator) Height(text string, width float64, font Font, lineHeight float64) float64 {
	return float64(len(e.Lines(text, width, font))) * lineHeight
}
