package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventorypro/inventorypro-backend/internal/adjustments"
	product "github.com/inventorypro/inventorypro-backend/internal/products"
)

// Metrics are the headline inventory counters.
type Metrics struct {
	TotalProducts   int64           `json:"totalProducts"`
	TotalStockValue decimal.Decimal `json:"totalStockValue"`
	LowStockCount   int64           `json:"lowStockCount"`
	OutOfStock      int64           `json:"outOfStock"`
}

// TopProduct is one of the largest outgoing adjustments.
type TopProduct struct {
	AdjustmentID uuid.UUID `json:"adjustmentId"`
	ProductID    uuid.UUID `json:"productId"`
	ProductName  string    `json:"productName"`
	Units        int       `json:"units"`
	CurrentStock int       `json:"currentStock"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Summary struct {
	Metrics        Metrics                   `json:"metrics"`
	LowStockItems  []product.ProductDTO      `json:"lowStockItems"`
	RecentActivity []adjustments.ActivityDTO `json:"recentActivity"`
	TopProducts    []TopProduct              `json:"topProducts"`
}

// MonthTotals holds the units moved in one calendar month.
type MonthTotals struct {
	Month    string `json:"month"`
	Incoming int64  `json:"incoming"`
	Outgoing int64  `json:"outgoing"`
}
