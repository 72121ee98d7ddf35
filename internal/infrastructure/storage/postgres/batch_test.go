package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/entity"
	"repopa/internal/core/id"
)

func TestStructRows(t *testing.T) {
	a := &sampleRecord{Base: entity.NewBase(), EntityID: id.New(), Name: "Fondo Estatal"}
	b := &sampleRecord{Base: entity.NewBase(), Name: "Instituto"}

	cols, rows, err := StructRows([]*sampleRecord{a, b})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(cols))

	nameIdx := -1
	for i, c := range cols {
		if c == "name" {
			nameIdx = i
		}
	}
	require.GreaterOrEqual(t, nameIdx, 0)
	assert.Equal(t, "Fondo Estatal", rows[0][nameIdx])
	assert.Equal(t, "Instituto", rows[1][nameIdx])
	assert.Equal(t, a.ID, rows[0][0])
}

func TestStructRows_NoColumns(t *testing.T) {
	type plain struct{ A int }
	_, _, err := StructRows([]*plain{{A: 1}})
	assert.Error(t, err)
}
