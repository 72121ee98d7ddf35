package folio

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"repopa/internal/core/apperror"
)

// Type is the legal classification of a registered entity.
type Type string

const (
	TypeOPD         Type = "OPD"
	TypeFideicomiso Type = "Fideicomiso"
	TypeEPEM        Type = "EPEM"
)

// Types lists every classification in display order.
func Types() []Type {
	return []Type{TypeOPD, TypeFideicomiso, TypeEPEM}
}

// Class returns the folio segment for the type.
func (t Type) Class() Class {
	switch t {
	case TypeFideicomiso:
		return ClassFI
	case TypeEPEM:
		return ClassEPEM
	default:
		return ClassOPD
	}
}

// Label is the full Spanish name used in reports.
func (t Type) Label() string {
	switch t {
	case TypeOPD:
		return "Organismo Público Descentralizado"
	case TypeFideicomiso:
		return "Fideicomiso"
	case TypeEPEM:
		return "Empresa de Participación Estatal Mayoritaria"
	default:
		return string(t)
	}
}

// Valid reports whether t is one of the canonical types.
func (t Type) Valid() bool {
	switch t {
	case TypeOPD, TypeFideicomiso, TypeEPEM:
		return true
	}
	return false
}

// Class is the short code stored inside a folio.
type Class string

const (
	ClassOPD  Class = "OPD"
	ClassFI   Class = "FI"
	ClassEPEM Class = "EPEM"
)

// Valid reports whether c is a known class code.
func (c Class) Valid() bool {
	switch c {
	case ClassOPD, ClassFI, ClassEPEM:
		return true
	}
	return false
}

// UnknownTypePolicy decides what happens to a classification that matches
// none of the known aliases.
type UnknownTypePolicy int

const (
	// UnknownTypeDefault resolves unknown values to TypeOPD.
	UnknownTypeDefault UnknownTypePolicy = iota
	// UnknownTypeReject fails with a validation error.
	UnknownTypeReject
)

func (p UnknownTypePolicy) String() string {
	if p == UnknownTypeReject {
		return "reject"
	}
	return "default"
}

// ParsePolicy maps a configuration value ("default" or "reject").
func ParsePolicy(s string) (UnknownTypePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return UnknownTypeDefault, nil
	case "reject":
		return UnknownTypeReject, nil
	}
	return UnknownTypeDefault, fmt.Errorf("unknown type policy %q", s)
}

var typeAliases = map[string]Type{
	"opd":                               TypeOPD,
	"organismo":                         TypeOPD,
	"organismo publico descentralizado": TypeOPD,
	"fideicomiso":                       TypeFideicomiso,
	"fi":                                TypeFideicomiso,
	"epem":                              TypeEPEM,
	"empresa de participacion estatal mayoritaria": TypeEPEM,
}

// ParseType resolves a user-supplied classification. Matching ignores case,
// surrounding and repeated whitespace, and diacritics.
func ParseType(raw string, policy UnknownTypePolicy) (Type, error) {
	key := normalize(raw)
	if key == "" {
		return "", apperror.NewRequired("type")
	}
	if t, ok := typeAliases[key]; ok {
		return t, nil
	}
	if policy == UnknownTypeReject {
		return "", apperror.NewValidation("unknown entity type").
			WithDetail("field", "type").
			WithDetail("value", raw).
			WithDetail("allowed", Types())
	}
	return TypeOPD, nil
}

func normalize(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}
