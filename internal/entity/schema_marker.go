package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// SchemaMarker records a completed provisioning pass. The primary key on
// Version guarantees a version is seeded at most once, across processes.
type SchemaMarker struct {
	bun.BaseModel `bun:"table:ledger_schema"`

	Version   int       `bun:"version,pk"`
	Source    string    `bun:"source,type:varchar(32),notnull"`
	ItemCount int       `bun:"item_count,notnull"`
	AppliedAt time.Time `bun:"applied_at,notnull"`
}
