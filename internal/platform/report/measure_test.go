package report

import (
	"strings"
	"testing"
)

func charWidth(s string) float64 { return float64(len([]rune(s))) }

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width float64
		want  []string
	}{
		{"fits", "take with food", 20, []string{"take with food"}},
		{"wraps on words", "take with food twice daily", 10, []string{"take with", "food twice", "daily"}},
		{"keeps newlines", "line one\nline two", 20, []string{"line one", "line two"}},
		{"blank paragraph", "a\n\nb", 20, []string{"a", "", "b"}},
		{"breaks long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long word after text", "ab abcdefgh", 4, []string{"ab", "abcd", "efgh"}},
		{"collapses spaces", "  a   b  ", 20, []string{"a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapText(tt.in, tt.width, charWidth)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("WrapText(%q, %v) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapText_LinesNeverExceedWidth(t *testing.T) {
	s := strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit. ", 12)
	for _, w := range []float64{5, 17, 40, 80} {
		for _, l := range WrapText(s, w, charWidth) {
			if charWidth(l) > w {
				t.Errorf("width %v: line %q too wide", w, l)
			}
		}
	}
}

func TestEstimator_Height(t *testing.T) {
	rc := newRecordingCanvas()
	est := NewEstimator(rc)
	font := Font{"Helvetica", "", 10} // 2 units per rune

	if h := est.Height("", 100, font, 4); h != 4 {
		t.Errorf("blank text should estimate one fallback line, got %v", h)
	}
	if got := est.Lines("   ", 100, font); len(got) != 1 || got[0] != NA {
		t.Errorf("expected N/A fallback, got %q", got)
	}

	text := strings.Repeat("word ", 30) // 150 runes
	lines := WrapText(text, 100, func(s string) float64 { return fakeWidth(s, 10) })
	if h := est.Height(text, 100, font, 4); h != float64(len(lines))*4 {
		t.Errorf("expected %d lines * 4, got %v", len(lines), h)
	}
	if rc.size != 10 {
		t.Errorf("estimator should select the measured font, size is %v", rc.size)
	}
}
