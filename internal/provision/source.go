package provision

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/Additional-Code/brewbar/internal/entity"
)

// SeedSource produces the initial menu. An empty result with a nil error means
// the source has nothing to offer and the next source should be tried.
type SeedSource interface {
	Name() string
	Load(ctx context.Context, db bun.IDB) ([]*entity.MenuItem, error)
}

// LegacyTableSource copies rows out of a pre-existing menu table.
type LegacyTableSource struct {
	Table        string
	DefaultEmoji string
}

// Name implements SeedSource.
func (LegacyTableSource) Name() string { return "legacy" }

type legacyRow struct {
	ID          int64           `bun:"id"`
	Category    string          `bun:"category"`
	Name        string          `bun:"name"`
	Description sql.NullString  `bun:"description"`
	Price       decimal.Decimal `bun:"price"`
	Emoji       sql.NullString  `bun:"emoji"`
}

// Load implements SeedSource. Rows keep category then id order and receive new ids on insert.
func (s LegacyTableSource) Load(ctx context.Context, db bun.IDB) ([]*entity.MenuItem, error) {
	if s.Table == "" {
		return nil, nil
	}
	exists, err := tableExists(ctx, db, s.Table)
	if err != nil {
		return nil, fmt.Errorf("probe legacy table %s: %w", s.Table, err)
	}
	if !exists {
		return nil, nil
	}

	columns, err := tableColumns(ctx, db, s.Table)
	if err != nil {
		return nil, fmt.Errorf("list legacy columns of %s: %w", s.Table, err)
	}
	description, emoji := bun.Safe("NULL"), bun.Safe("NULL")
	if columns["description"] {
		description = bun.Safe("description")
	}
	if columns["emoji"] {
		emoji = bun.Safe("emoji")
	}

	var rows []legacyRow
	err = db.NewRaw(
		"SELECT id, category, name, ? AS description, price, ? AS emoji FROM ? ORDER BY category, id",
		description, emoji, bun.Ident(s.Table),
	).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("read legacy table %s: %w", s.Table, err)
	}

	items := make([]*entity.MenuItem, 0, len(rows))
	for _, row := range rows {
		emoji := row.Emoji.String
		if !row.Emoji.Valid || emoji == "" {
			emoji = s.DefaultEmoji
		}
		items = append(items, &entity.MenuItem{
			Category:    row.Category,
			Name:        row.Name,
			Description: row.Description.String,
			Price:       row.Price,
			Emoji:       emoji,
		})
	}
	return items, nil
}

// FallbackSource seeds a small fixed menu.
type FallbackSource struct{}

// Name implements SeedSource.
func (FallbackSource) Name() string { return "fallback" }

// Load implements SeedSource.
func (FallbackSource) Load(context.Context, bun.IDB) ([]*entity.MenuItem, error) {
	return FallbackMenu(), nil
}

// FallbackMenu returns a fresh copy of the built-in menu.
func FallbackMenu() []*entity.MenuItem {
	return []*entity.MenuItem{
		{Category: "Hot Coffee", Name: "Espresso", Description: "Double shot, bold and intense", Price: decimal.RequireFromString("3.50"), Emoji: "☕"},
		{Category: "Hot Coffee", Name: "Latte", Description: "Smooth espresso with lots of milk", Price: decimal.RequireFromString("5.00"), Emoji: "🥛"},
		{Category: "Cold Coffee", Name: "Cold Brew", Description: "Steeped 18hrs, smooth and strong", Price: decimal.RequireFromString("5.50"), Emoji: "🧊"},
		{Category: "Tea", Name: "Earl Grey", Description: "Classic bergamot black tea", Price: decimal.RequireFromString("3.50"), Emoji: "🫖"},
		{Category: "Food", Name: "Butter Croissant", Description: "Flaky, golden, fresh baked daily", Price: decimal.RequireFromString("4.00"), Emoji: "🥐"},
		{Category: "Food", Name: "Avocado Toast", Description: "Sourdough with smashed avo & chili", Price: decimal.RequireFromString("9.00"), Emoji: "🥑"},
	}
}

func tableExists(ctx context.Context, db bun.IDB, table string) (bool, error) {
	var query string
	switch db.Dialect().Name() {
	case dialect.SQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case dialect.PG:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	case dialect.MySQL:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	default:
		return false, fmt.Errorf("unsupported dialect %s", db.Dialect().Name())
	}

	var n int
	if err := db.NewRaw(query, table).Scan(ctx, &n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// tableColumns returns the lower-cased column names of table.
func tableColumns(ctx context.Context, db bun.IDB, table string) (map[string]bool, error) {
	var query string
	switch db.Dialect().Name() {
	case dialect.SQLite:
		query = "SELECT name FROM pragma_table_info(?)"
	case dialect.PG:
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ?"
	case dialect.MySQL:
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ?"
	default:
		return nil, fmt.Errorf("unsupported dialect %s", db.Dialect().Name())
	}

	var names []string
	if err := db.NewRaw(query, table).Scan(ctx, &names); err != nil {
		return nil, err
	}
	columns := make(map[string]bool, len(names))
	for _, name := range names {
		columns[strings.ToLower(name)] = true
	}
	return columns, nil
}
