package legacy

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/folio"
	"repopa/internal/domain/entes"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC) }

func TestReadEntes(t *testing.T) {
	input := "\ufeffFolio,Nombre,Tipo,Estatus,Fecha_Creacion,Objeto\n" +
		"SAyF-PF-REPOPA-IDV-OPD-2019-007,Instituto de Vivienda,Organismo,Activo,01/05/1990,Vivienda social\n" +
		",,,,,\n" +
		"SAyF-PF-REPOPA-FEA-FI-2020-12,Fideicomiso Estatal del Agua,fideicomiso,inactivo,,\n"

	got, err := ReadEntes(strings.NewReader(input), Options{Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "SAyF-PF-REPOPA-IDV-OPD-2019-007", first.Folio)
	assert.EqualValues(t, 7, first.FolioSeq)
	assert.Equal(t, folio.TypeOPD, first.Type)
	assert.Equal(t, entes.StatusActive, first.Status)
	assert.Equal(t, "Vivienda social", first.Purpose)
	require.NotNil(t, first.CreationDate)
	assert.Equal(t, "1990-05-01", first.CreationDate.Format("2006-01-02"))
	assert.Equal(t, fixedNow(), first.CreatedAt)
	assert.Equal(t, "legacy-import", first.CreatedBy)
	assert.Equal(t, 1, first.Version)

	second := got[1]
	assert.EqualValues(t, 12, second.FolioSeq)
	assert.Equal(t, folio.TypeFideicomiso, second.Type)
	assert.Equal(t, entes.StatusInactive, second.Status)
	assert.Nil(t, second.CreationDate)
}

func TestReadEntes_Latin1(t *testing.T) {
	input := "folio;nombre;tipo\n" +
		"SAyF-PF-REPOPA-CEDAY-OPD-2018-003;Comisi\xf3n Estatal de Agua;OPD\n"

	got, err := ReadEntes(strings.NewReader(input), Options{Encoding: EncodingLatin1, Comma: ';'})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Comisión Estatal de Agua", got[0].Name)
}

func TestReadEntes_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     Options
		wantLine int
		contains string
	}{
		{
			name:     "missing required column",
			input:    "folio,nombre\nSAyF-PF-REPOPA-A-OPD-2020-001,A\n",
			contains: "missing column for type",
		},
		{
			name:     "bad folio",
			input:    "folio,nombre,tipo\nABC-001,A,OPD\n",
			wantLine: 2,
			contains: "invalid folio",
		},
		{
			name:     "duplicate folio",
			input:    "folio,nombre,tipo\nSAyF-PF-REPOPA-A-OPD-2020-001,A,OPD\nSAyF-PF-REPOPA-A-OPD-2020-001,B,OPD\n",
			wantLine: 3,
			contains: "already on line 2",
		},
		{
			name:  "duplicate sequence across acronyms",
			input: "folio,nombre,tipo\n" +
				"SAyF-PF-REPOPA-IDV-OPD-2019-007,Instituto de Vivienda,OPD\n" +
				"SAyF-PF-REPOPA-FEA-FI-2019-7,Fideicomiso Estatal del Agua,FI\n",
			wantLine: 3,
			contains: "folio sequence 7 of SAyF-PF-REPOPA-FEA-FI-2019-7 already used on line 2",
		},
		{
			name:     "unknown type rejected",
			input:    "folio,nombre,tipo\nSAyF-PF-REPOPA-A-OPD-2020-001,A,Secretaría\n",
			opts:     Options{UnknownType: folio.UnknownTypeReject},
			wantLine: 2,
			contains: "tipo",
		},
		{
			name:     "bad date",
			input:    "folio,nombre,tipo,fecha_creacion\nSAyF-PF-REPOPA-A-OPD-2020-001,A,OPD,mayo 1990\n",
			wantLine: 2,
			contains: "fecha_creacion",
		},
		{
			name:     "empty file",
			input:    "",
			contains: "empty file",
		},
		{
			name:     "unsupported encoding",
			input:    "folio,nombre,tipo\n",
			opts:     Options{Encoding: "ebcdic"},
			contains: "unsupported encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadEntes(strings.NewReader(tt.input), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)

			var rowErr *RowError
			if tt.wantLine > 0 {
				require.True(t, errors.As(err, &rowErr))
				assert.Equal(t, tt.wantLine, rowErr.Line)
			} else {
				assert.False(t, errors.As(err, &rowErr))
			}
		})
	}
}

func TestReadEntes_UnknownTypeDefaultsToOPD(t *testing.T) {
	got, err := ReadEntes(strings.NewReader("folio,nombre,tipo\nSAyF-PF-REPOPA-F-OPD-2021-004,Foo,Secretaría\n"), Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, folio.TypeOPD, got[0].Type)
}
