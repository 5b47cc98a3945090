package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect"

	"github.com/Additional-Code/brewbar/internal/config"
)

func TestSelectDialect(t *testing.T) {
	cases := map[string]dialect.Name{
		"postgres": dialect.PG,
		"pgx":      dialect.PG,
		"mysql":    dialect.MySQL,
		"sqlite":   dialect.SQLite,
	}
	for driver, want := range cases {
		t.Run(driver, func(t *testing.T) {
			d, err := selectDialect(driver)
			require.NoError(t, err)
			assert.Equal(t, want, d.Name())
		})
	}

	_, err := selectDialect("oracle")
	assert.Error(t, err)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(config.Database{Driver: "postgres"})
	assert.Error(t, err)
}

func TestOpen_SQLiteSharesWriterAsReader(t *testing.T) {
	conns, err := Open(config.Database{Driver: "sqlite", WriterDSN: "file::memory:?cache=shared"})
	require.NoError(t, err)
	defer conns.Close()

	assert.Same(t, conns.Writer, conns.Reader)
	assert.Equal(t, 1, conns.Writer.DB.Stats().MaxOpenConnections)
	require.NoError(t, pingContext(context.Background(), conns.Writer))
}
