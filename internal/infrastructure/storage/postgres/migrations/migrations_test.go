package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/repopa?sslmode=disable", DriverURL("postgres://u:p@db:5432/repopa?sslmode=disable"))
	assert.Equal(t, "pgx5://db/repopa", DriverURL("postgresql://db/repopa"))
	assert.Equal(t, "pgx5://db/repopa", DriverURL("pgx5://db/repopa"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestSchemaKeepsFolioUnique(t *testing.T) {
	raw, err := fs.ReadFile(files, "sql/000001_registry.up.sql")
	require.NoError(t, err)
	sql := string(raw)

	assert.Contains(t, sql, "CONSTRAINT entes_folio_key UNIQUE (folio)")
	assert.Contains(t, sql, "CONSTRAINT entes_folio_seq_key UNIQUE (folio_seq)")
}
