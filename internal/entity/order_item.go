package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderItem snapshots the name and price of a purchased item at order time.
// MenuID is nullable and deliberately not a foreign key.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID       int64           `bun:"id,pk,autoincrement" json:"id"`
	OrderID  int64           `bun:"order_id,notnull" json:"order_id"`
	MenuID   *int64          `bun:"menu_id" json:"menu_id,omitempty"`
	Name     string          `bun:"name,type:varchar(100),notnull" json:"name"`
	Price    decimal.Decimal `bun:"price,type:numeric(6,2),notnull" json:"price"`
	Quantity int             `bun:"quantity,notnull" json:"quantity"`
}

// Subtotal returns price multiplied by quantity.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
