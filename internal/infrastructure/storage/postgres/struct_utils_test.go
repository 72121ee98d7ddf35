package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"repopa/internal/core/entity"
	"repopa/internal/core/id"
)

type sampleRecord struct {
	entity.Base
	EntityID id.ID  `db:"entity_id"`
	Name     string `db:"name"`
	Internal string `db:"-"`
	Note     string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[sampleRecord]()

	assert.Equal(t, []string{
		"id", "version", "created_at", "updated_at", "created_by", "updated_by",
		"entity_id", "name",
	}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	rec := sampleRecord{
		Base:     entity.Base{ID: id.New(), Version: 3, CreatedAt: now, CreatedBy: "u1"},
		EntityID: id.New(),
		Name:     "Consejo Directivo",
		Internal: "skip",
	}

	m := StructToMap(&rec)

	assert.Len(t, m, 8)
	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "u1", m["created_by"])
	assert.Equal(t, rec.EntityID, m["entity_id"])
	assert.Equal(t, "Consejo Directivo", m["name"])
	assert.NotContains(t, m, "-")
}

func TestStructToMap_NotAStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap((*sampleRecord)(nil)))
}
