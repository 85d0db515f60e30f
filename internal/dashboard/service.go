package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inventorypro/inventorypro-backend/internal/adjustments"
	product "github.com/inventorypro/inventorypro-backend/internal/products"
	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	pkgerrors "github.com/inventorypro/inventorypro-backend/pkg/errors"
)

const (
	recentActivityLimit = 10
	topProductsLimit    = 5
	chartMonths         = 12
	monthLayout         = "2006-01"
)

// Service aggregates the owner's inventory for the dashboard.
type Service interface {
	Summary(ctx context.Context, ownerID uuid.UUID) (*Summary, error)
	Chart(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]MonthTotals, error)
}

type service struct {
	repo        Repository
	adjustments adjustments.Repository
}

func NewService(repo Repository, adjustmentRepo adjustments.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if adjustmentRepo == nil {
		return nil, fmt.Errorf("adjustments repository required")
	}
	return &service{repo: repo, adjustments: adjustmentRepo}, nil
}

func (s *service) Summary(ctx context.Context, ownerID uuid.UUID) (*Summary, error) {
	totals, err := s.repo.ProductTotals(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: product totals")
	}
	lowStock, err := s.repo.LowStockProducts(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: low stock products")
	}
	recent, err := s.adjustments.Recent(ctx, ownerID, recentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: recent activity")
	}
	top, err := s.adjustments.TopOutgoing(ctx, ownerID, topProductsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: top outgoing")
	}

	lowStockItems := make([]product.ProductDTO, 0, len(lowStock))
	for i := range lowStock {
		lowStockItems = append(lowStockItems, product.NewProductDTO(&lowStock[i]))
	}
	topProducts := make([]TopProduct, 0, len(top))
	for _, row := range top {
		topProducts = append(topProducts, TopProduct{
			AdjustmentID: row.ID,
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			Units:        row.Units,
			CurrentStock: row.CurrentStock,
			CreatedAt:    row.CreatedAt,
		})
	}

	return &Summary{
		Metrics: Metrics{
			TotalProducts:   totals.TotalProducts,
			TotalStockValue: totals.TotalStockValue,
			LowStockCount:   totals.LowStockCount,
			OutOfStock:      totals.OutOfStock,
		},
		LowStockItems:  lowStockItems,
		RecentActivity: adjustments.NewActivityDTOs(recent),
		TopProducts:    topProducts,
	}, nil
}

// Chart returns incoming and outgoing units for the month containing now and
// the eleven months before it, oldest first.
func (s *service) Chart(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]MonthTotals, error) {
	now = now.UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := current.AddDate(0, -(chartMonths - 1), 0)

	rows, err := s.adjustments.MovementsSince(ctx, ownerID, start)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: movements")
	}

	months := make([]MonthTotals, chartMonths)
	index := make(map[string]int, chartMonths)
	for i := 0; i < chartMonths; i++ {
		key := start.AddDate(0, i, 0).Format(monthLayout)
		months[i] = MonthTotals{Month: key}
		index[key] = i
	}

	for _, row := range rows {
		i, ok := index[row.CreatedAt.UTC().Format(monthLayout)]
		if !ok {
			continue
		}
		switch row.Type {
		case enums.AdjustmentIncoming:
			months[i].Incoming += int64(row.Units)
		case enums.AdjustmentOutgoing:
			months[i].Outgoing += int64(row.Units)
		}
	}
	return months, nil
}
