package dashboard

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
)

// Repository reads product aggregates for the dashboard.
type Repository interface {
	ProductTotals(ctx context.Context, ownerID uuid.UUID) (*ProductTotals, error)
	LowStockProducts(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error)
}

// ProductTotals is the single-row product aggregate for an owner.
type ProductTotals struct {
	TotalProducts   int64           `gorm:"column:total_products"`
	TotalStockValue decimal.Decimal `gorm:"column:total_stock_value"`
	LowStockCount   int64           `gorm:"column:low_stock_count"`
	OutOfStock      int64           `gorm:"column:out_of_stock"`
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ProductTotals(ctx context.Context, ownerID uuid.UUID) (*ProductTotals, error) {
	var totals ProductTotals
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select(`COUNT(*) AS total_products,
			COALESCE(SUM(stock * price), 0) AS total_stock_value,
			COALESCE(SUM(CASE WHEN stock > 0 AND stock <= min_stock THEN 1 ELSE 0 END), 0) AS low_stock_count,
			COALESCE(SUM(CASE WHEN stock = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock`).
		Where("user_id = ?", ownerID).
		Scan(&totals).
		Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *repository) LowStockProducts(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND stock > 0 AND stock <= min_stock", ownerID).
		Order("stock ASC").
		Order("name ASC").
		Find(&rows).
		Error
	return rows, err
}
