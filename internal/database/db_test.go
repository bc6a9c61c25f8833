package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsDSN(t *testing.T) {
	p := Params{User: "ops", Pass: "secret", Host: "db", Port: "3306", Name: "devices"}

	dsn := p.DSN(false)
	assert.True(t, strings.HasPrefix(dsn, "ops:secret@tcp(db:3306)/devices?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.NotContains(t, dsn, "multiStatements")

	assert.Contains(t, p.DSN(true), "multiStatements=true")
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
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

func TestSchemaDefinesReadModels(t *testing.T) {
	bs, err := fs.ReadFile(migrationsFS, "migrations/000002_read_models.up.sql")
	require.NoError(t, err)
	for _, view := range []string{"inventory_summary", "inventory_by_model", "demo_summary", "hospital_overview"} {
		assert.Contains(t, string(bs), "VIEW "+view)
	}
}
