package folio

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"repopa/internal/core/apperror"
)

// MaxAcronymLen caps the acronym segment.
const MaxAcronymLen = 5

// Acronym takes the first character of every whitespace-separated word,
// upper-cases it and keeps only A-Z, up to MaxAcronymLen letters.
// Accented initials (É, Ó) are dropped rather than transliterated.
func Acronym(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		r = unicode.ToUpper(r)
		if r < 'A' || r > 'Z' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == MaxAcronymLen {
			break
		}
	}
	return b.String()
}

// Allocator turns registration input into a folio candidate.
type Allocator struct {
	Policy UnknownTypePolicy
}

// Candidate holds everything a folio needs except its sequence number.
type Candidate struct {
	Acronym string
	Type    Type
	Year    int
}

// Folio renders the candidate with the given sequence number.
func (c Candidate) Folio(seq int64) string {
	return Compose(c.Acronym, c.Type.Class(), c.Year, seq)
}

// Prepare validates name and classification and fixes the segments that
// do not depend on the counter. now supplies the calendar year.
func (a Allocator) Prepare(name, rawType string, now time.Time) (Candidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Candidate{}, apperror.NewRequired("name")
	}
	if strings.TrimSpace(rawType) == "" {
		return Candidate{}, apperror.NewRequired("type")
	}

	t, err := ParseType(rawType, a.Policy)
	if err != nil {
		return Candidate{}, err
	}

	acronym := Acronym(name)
	if acronym == "" {
		return Candidate{}, apperror.NewValidation("name must contain at least one word starting with a letter").
			WithDetail("field", "name")
	}

	return Candidate{Acronym: acronym, Type: t, Year: now.Year()}, nil
}
