package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// MenuItem is purchasable reference data, written once during provisioning.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id"`
	Category    string          `bun:"category,type:varchar(50),notnull" json:"category"`
	Name        string          `bun:"name,type:varchar(100),notnull" json:"name"`
	Description string          `bun:"description,type:text,nullzero" json:"description"`
	Price       decimal.Decimal `bun:"price,type:numeric(6,2),notnull" json:"price"`
	Emoji       string          `bun:"emoji,type:varchar(16),notnull" json:"emoji"`
}
