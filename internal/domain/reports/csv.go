package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVContentType is sent with the CSV download.
const CSVContentType = "text/csv; charset=utf-8"

const utf8BOM = "\ufeff"

// WriteCSV renders h in the spreadsheet layout: a BOM so Excel picks
// UTF-8, a short header, then one block per entity.
func WriteCSV(w io.Writer, h *History) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	lines := [][]string{
		{"REPORTE DE HISTORIAL - REPOPA"},
		{"Fecha de generación:", shortDate(h.GeneratedAt)},
		{"Entes seleccionados:", strconv.Itoa(len(h.Entities))},
		nil,
	}
	for _, eh := range h.Entities {
		lines = append(lines, entityCSV(eh)...)
	}
	if err := cw.WriteAll(lines); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func entityCSV(eh EntityHistory) [][]string {
	e := eh.Ente
	out := [][]string{
		nil,
		{"=== " + e.Name + " ==="},
		{"Folio:", e.Folio},
		{"Tipo:", e.Type.Label()},
		{"Estatus:", string(e.Status)},
		{"Fecha de Creación:", dateOr(e.CreationDate, notAvailable)},
		nil,
		{"DOCUMENTOS NORMATIVOS"},
		{"Nombre", "Tipo", "Fecha de Publicación"},
	}
	for _, d := range eh.Documents {
		out = append(out, []string{d.DocumentName, d.DocumentType, dateOr(d.PublicationDate, notAvailable)})
	}

	out = append(out, nil,
		[]string{"INTEGRANTES"},
		[]string{"Nombre", "Cargo", "Nombramiento", "Estatus"})
	for _, m := range eh.Members {
		out = append(out, []string{m.MemberName, m.Position, dateOr(m.AppointmentDate, notAvailable), string(m.Status)})
	}

	out = append(out, nil,
		[]string{"DIRECTORES"},
		[]string{"Nombre", "Cargo", "Fecha de Inicio", "Fecha de Conclusión"})
	for _, d := range eh.Directors {
		out = append(out, []string{d.Name, d.Position, dateOr(d.StartDate, notAvailable), dateOr(d.EndDate, "Vigente")})
	}

	out = append(out, nil,
		[]string{"PODERES Y FACULTADES"},
		[]string{"Tipo de Poder", "Apoderados", "Fecha de Otorgamiento", "Revocación"})
	for _, p := range eh.Powers {
		out = append(out, []string{
			p.PowerType,
			strings.Join(p.Attorneys, "; "),
			dateOr(p.GrantDate, notAvailable),
			orDefault(p.Revocation, "No"),
		})
	}
	return append(out, nil, nil)
}
