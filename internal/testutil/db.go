// Package testutil provides sqlite-backed fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/database"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory sqlite database that lives until the test ends.
func NewDB(tb testing.TB) *bun.DB {
	tb.Helper()
	return NewConnections(tb).Writer
}

// NewConnections is NewDB wrapped in the Connections type services depend on.
func NewConnections(tb testing.TB) *database.Connections {
	tb.Helper()

	conns, err := database.Open(config.Database{
		Driver:    "sqlite",
		WriterDSN: DSN(tb),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = conns.Close() })
	return conns
}

// DSN returns a shared-cache in-memory DSN unique to the calling test.
func DSN(tb testing.TB) string {
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(tb.Name())
	return fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
}
