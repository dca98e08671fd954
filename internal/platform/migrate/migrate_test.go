package migrate

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsHaveGooseMarkers(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		data, err := fs.ReadFile(migrations, Dir+"/"+name)
		require.NoError(t, err)
		txt := string(data)
		assert.Contains(t, txt, "-- +goose Up", name)
		assert.Contains(t, txt, "-- +goose Down", name)
	}
}

func TestFactTableMigrationDefinesReportColumns(t *testing.T) {
	data, err := fs.ReadFile(migrations, Dir+"/00002_create_sales_fact.sql")
	require.NoError(t, err)
	for _, col := range []string{"period", "created_date", "batch_date", "location_code", "product_code", "product_name", "contributed_quantity"} {
		assert.True(t, strings.Contains(string(data), col), "missing column %s", col)
	}
}

func TestRunRequiresDB(t *testing.T) {
	require.Error(t, Run(context.Background(), nil, CommandUp))
	require.Error(t, UpFromPool(context.Background(), nil))
}
