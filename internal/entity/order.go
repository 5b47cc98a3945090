package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Order is the ledger header row. Status is the only column mutated after creation.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID        int64           `bun:"id,pk,autoincrement" json:"id"`
	Customer  string          `bun:"customer,type:varchar(100),notnull" json:"customer"`
	Note      string          `bun:"note,type:text,nullzero" json:"note,omitempty"`
	Status    string          `bun:"status,type:varchar(20),notnull,default:'pending'" json:"status"`
	Total     decimal.Decimal `bun:"total,type:numeric(8,2),notnull" json:"total"`
	CreatedAt time.Time       `bun:"created_at,notnull" json:"created_at"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items"`
}
