// Package legacy reads entity exports of the spreadsheet registry that
// predates REPOPA, so they can be bulk loaded with their original folios.
package legacy

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"repopa/internal/core/entity"
	"repopa/internal/core/folio"
	"repopa/internal/domain/entes"
)

// Encodings accepted by Options.Encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
)

// Options control how a file is decoded.
type Options struct {
	// Encoding of the file; empty means UTF-8 (a BOM is skipped).
	Encoding string
	// Comma is the field separator; zero means ','.
	Comma rune
	// UnknownType decides what happens to unrecognized classifications.
	UnknownType folio.UnknownTypePolicy
	// Now stamps created_at/updated_at; defaults to time.Now.
	Now func() time.Time
}

// Column headers, matched case-insensitively. Only folio, nombre and tipo
// are required.
var columns = map[string]string{
	"folio":                "folio",
	"nombre":               "name",
	"tipo":                 "type",
	"objeto":               "purpose",
	"domicilio":            "address",
	"estatus":              "status",
	"instrumento_creacion": "creation_instrument",
	"fecha_creacion":       "creation_date",
	"publicacion_oficial":  "official_publication",
	"observaciones":        "observations",
}

var requiredColumns = []string{"folio", "name", "type"}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006"}

// RowError points at the offending line of the input.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func decoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf8", EncodingUTF8:
		return unicode.UTF8BOM, nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1, nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// ReadEntes parses every row of r. The first row is the header. Rows keep
// their folio; FolioSeq is taken from its numeric suffix. A file whose
// folios repeat a full folio or a sequence number is rejected with the
// line of the second occurrence.
func ReadEntes(r io.Reader, opts Options) ([]*entes.Ente, error) {
	enc, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if field, ok := columns[strings.ToLower(strings.TrimSpace(h))]; ok {
			index[field] = i
		}
	}
	for _, field := range requiredColumns {
		if _, ok := index[field]; !ok {
			return nil, fmt.Errorf("missing column for %s", field)
		}
	}

	var out []*entes.Ente
	seen := make(map[string]int)
	// folio_seq is unique across acronyms and classes: "IDV-OPD-2019-007"
	// and "FEA-FI-2019-7" clash.
	seenSeq := make(map[int64]int)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		get := func(field string) string {
			i, ok := index[field]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if isBlank(rec) {
			continue
		}

		e, err := toEnte(get, opts.UnknownType, now().UTC())
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		if prev, dup := seen[e.Folio]; dup {
			return nil, &RowError{Line: line, Err: fmt.Errorf("folio %s already on line %d", e.Folio, prev)}
		}
		if prev, dup := seenSeq[e.FolioSeq]; dup {
			return nil, &RowError{Line: line, Err: fmt.Errorf("folio sequence %d of %s already used on line %d", e.FolioSeq, e.Folio, prev)}
		}
		seen[e.Folio] = line
		seenSeq[e.FolioSeq] = line
		out = append(out, e)
	}
	return out, nil
}

func toEnte(get func(string) string, policy folio.UnknownTypePolicy, now time.Time) (*entes.Ente, error) {
	f := get("folio")
	seq, ok := folio.Sequence(f)
	if !ok {
		return nil, fmt.Errorf("invalid folio %q", f)
	}
	typ, err := folio.ParseType(get("type"), policy)
	if err != nil {
		return nil, fmt.Errorf("tipo: %w", err)
	}
	status, err := entes.ParseStatus(get("status"))
	if err != nil {
		return nil, fmt.Errorf("estatus: %w", err)
	}
	created, err := parseDate(get("creation_date"))
	if err != nil {
		return nil, fmt.Errorf("fecha_creacion: %w", err)
	}

	base := entity.NewBase()
	base.CreatedAt = now
	base.UpdatedAt = now
	base.SetCreatedBy("legacy-import")

	e := &entes.Ente{
		Base:                base,
		Folio:               f,
		FolioSeq:            seq,
		Name:                get("name"),
		Type:                typ,
		Purpose:             get("purpose"),
		Address:             get("address"),
		CreationInstrument:  get("creation_instrument"),
		CreationDate:        created,
		OfficialPublication: get("official_publication"),
		Observations:        get("observations"),
		Status:              status,
	}
	if err := e.Validate(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
