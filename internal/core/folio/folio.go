// Package folio builds and parses registration codes of the form
//
//	SAyF-PF-REPOPA-{ACRONYM}-{CLASS}-{YEAR}-{SEQ}
//
// Every function here is pure. Sequence numbers come from a
// numerator.Sequencer owned by the caller.
package folio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Prefix is the fixed literal every folio starts with. It is also the
	// key of the single global sequence.
	Prefix = "SAyF-PF-REPOPA"

	// SeqWidth is the minimum width of the sequence segment. Larger
	// numbers widen the segment instead of being truncated.
	SeqWidth = 3

	// LikePattern matches all folios in SQL LIKE expressions.
	LikePattern = Prefix + "-%"
)

// Parts are the variable segments of a folio.
type Parts struct {
	Acronym string
	Class   Class
	Year    int
	Seq     int64
}

// String renders the parts back into a folio.
func (p Parts) String() string {
	return Compose(p.Acronym, p.Class, p.Year, p.Seq)
}

// Compose renders a folio from its segments.
func Compose(acronym string, class Class, year int, seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%04d-%0*d", Prefix, acronym, class, year, SeqWidth, seq)
}

// Parse splits a folio into its segments. The acronym may be empty, legacy
// records were issued without a guard for names lacking letters.
func Parse(folio string) (Parts, error) {
	rest, ok := strings.CutPrefix(folio, Prefix+"-")
	if !ok {
		return Parts{}, fmt.Errorf("folio %q: missing prefix %s", folio, Prefix)
	}

	segs := strings.Split(rest, "-")
	if len(segs) != 4 {
		return Parts{}, fmt.Errorf("folio %q: expected 4 segments after prefix, got %d", folio, len(segs))
	}

	class := Class(segs[1])
	if !class.Valid() {
		return Parts{}, fmt.Errorf("folio %q: unknown class %q", folio, segs[1])
	}

	if len(segs[2]) != 4 {
		return Parts{}, fmt.Errorf("folio %q: year must have 4 digits", folio)
	}
	year, err := strconv.Atoi(segs[2])
	if err != nil {
		return Parts{}, fmt.Errorf("folio %q: year: %w", folio, err)
	}

	seq, err := parseSeq(segs[3])
	if err != nil {
		return Parts{}, fmt.Errorf("folio %q: sequence: %w", folio, err)
	}

	return Parts{Acronym: segs[0], Class: class, Year: year, Seq: seq}, nil
}

// Sequence extracts the numeric suffix after the last '-' of a folio that
// carries the fixed prefix. It is deliberately lenient so that counters can
// be reconciled against malformed legacy data.
func Sequence(folio string) (int64, bool) {
	if !strings.HasPrefix(folio, Prefix+"-") {
		return 0, false
	}
	i := strings.LastIndexByte(folio, '-')
	seq, err := parseSeq(folio[i+1:])
	if err != nil {
		return 0, false
	}
	return seq, true
}

func parseSeq(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
