package report

import (
	"strings"
	"time"
	"unicode"
)

// FileName is <prefix>_<LastName>_<FirstName>_<YYYY-MM-DD>.pdf. Name parts
// are made safe for file systems and Content-Disposition headers.
func FileName(prefix string, p *Patient, at time.Time) string {
	return strings.Join([]string{
		prefix,
		fileSafe(p.LastName),
		fileSafe(p.FirstName),
		at.Format("2006-01-02"),
	}, "_") + ".pdf"
}

func fileSafe(s string) string {
	s = strings.Join(strings.Fields(s), "-")
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return -1
		}
		return r
	}, s)
}
