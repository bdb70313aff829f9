// Package catalog manages the item master data. It never writes
// stock_qty; only the stock coordinator mutates quantities.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a sellable product in the catalog.
type Item struct {
	ID        uuid.UUID
	Name      string
	Brand     string
	Model     string
	Category  string
	Price     decimal.Decimal
	StockQty  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilters narrows an item listing.
type ListFilters struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}
