package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/migrations"
)

func TestUpSection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"up and down", "-- +migrate Up\nCREATE TABLE a();\n-- +migrate Down\nDROP TABLE a;", "\nCREATE TABLE a();\n"},
		{"up only", "-- +migrate Up\nCREATE TABLE b();", "\nCREATE TABLE b();"},
		{"no markers", "CREATE TABLE c();", "CREATE TABLE c();"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpSection(tt.content))
		})
	}
}

func TestEmbeddedMigrationsHaveUpSections(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		content, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		up := UpSection(string(content))
		assert.NotEmpty(t, strings.TrimSpace(up), name)
		assert.NotContains(t, up, "DROP TABLE", name)
	}
}
