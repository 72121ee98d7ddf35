package reports

import (
	"fmt"
	"time"
)

const notAvailable = "N/A"

var monthsES = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// dateOr formats an optional calendar date as YYYY-MM-DD.
func dateOr(d *time.Time, fallback string) string {
	if d == nil || d.IsZero() {
		return fallback
	}
	return d.Format(time.DateOnly)
}

// shortDate is the es-MX short form, 19/10/2026.
func shortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

// longDate is the es-MX long form, 19 de octubre de 2026.
func longDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthsES[t.Month()-1], t.Year())
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
