package adjustments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	"github.com/inventorypro/inventorypro-backend/pkg/pagination"
)

// Repository manages persistence for the stock adjustment ledger. Rows are
// only ever inserted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, adjustment *models.StockAdjustment) error
	LoadRecipient(ctx context.Context, userID uuid.UUID) (*Recipient, error)
	List(ctx context.Context, ownerID uuid.UUID, filters Filters, params pagination.Params) ([]ActivityRow, int64, error)
	ListForExport(ctx context.Context, ownerID uuid.UUID, filters Filters) ([]models.StockAdjustment, error)
	Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]ActivityRow, error)
	TopOutgoing(ctx context.Context, ownerID uuid.UUID, limit int) ([]TopOutgoingRow, error)
	MovementsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]MovementRow, error)
}

// Filters narrows ledger listings.
type Filters struct {
	Type      *enums.AdjustmentType
	ProductID *uuid.UUID
}

// Recipient is the owner data read inside the adjustment transaction.
type Recipient struct {
	Email         string `gorm:"column:email"`
	Username      string `gorm:"column:username"`
	LowStockLimit int    `gorm:"column:low_stock_limit"`
}

// ActivityRow is a ledger row joined with its product and acting user.
type ActivityRow struct {
	ID          uuid.UUID            `gorm:"column:id"`
	ProductID   uuid.UUID            `gorm:"column:product_id"`
	ProductName string               `gorm:"column:product_name"`
	ProductSKU  string               `gorm:"column:product_sku"`
	Type        enums.AdjustmentType `gorm:"column:type"`
	Units       int                  `gorm:"column:units"`
	Reason      *string              `gorm:"column:reason"`
	Username    string               `gorm:"column:username"`
	CreatedAt   time.Time            `gorm:"column:created_at"`
}

// TopOutgoingRow is an outgoing adjustment joined with its product's stock.
type TopOutgoingRow struct {
	ID           uuid.UUID `gorm:"column:id"`
	ProductID    uuid.UUID `gorm:"column:product_id"`
	ProductName  string    `gorm:"column:product_name"`
	Units        int       `gorm:"column:units"`
	CurrentStock int       `gorm:"column:current_stock"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// MovementRow is the minimal projection used for monthly totals.
type MovementRow struct {
	Type      enums.AdjustmentType `gorm:"column:type"`
	Units     int                  `gorm:"column:units"`
	CreatedAt time.Time            `gorm:"column:created_at"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, adjustment *models.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *repository) LoadRecipient(ctx context.Context, userID uuid.UUID) (*Recipient, error) {
	var recipient Recipient
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("email, username, low_stock_limit").
		Where("id = ?", userID).
		Take(&recipient).
		Error; err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (r *repository) activity(ctx context.Context, ownerID uuid.UUID, filters Filters) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("stock_adjustments AS sa").
		Joins("JOIN products p ON p.id = sa.product_id").
		Joins("JOIN users u ON u.id = sa.user_id").
		Where("sa.user_id = ?", ownerID)
	if filters.Type != nil {
		query = query.Where("sa.type = ?", *filters.Type)
	}
	if filters.ProductID != nil {
		query = query.Where("sa.product_id = ?", *filters.ProductID)
	}
	return query
}

const activityColumns = "sa.id, sa.product_id, p.name AS product_name, p.sku AS product_sku, sa.type, sa.units, sa.reason, u.username, sa.created_at"

func (r *repository) List(ctx context.Context, ownerID uuid.UUID, filters Filters, params pagination.Params) ([]ActivityRow, int64, error) {
	var total int64
	if err := r.activity(ctx, ownerID, filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params = params.Normalize()
	var rows []ActivityRow
	err := r.activity(ctx, ownerID, filters).
		Select(activityColumns).
		Order("sa.created_at DESC").
		Order("sa.id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Scan(&rows).
		Error
	return rows, total, err
}

func (r *repository) ListForExport(ctx context.Context, ownerID uuid.UUID, filters Filters) ([]models.StockAdjustment, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.ProductID != nil {
		query = query.Where("product_id = ?", *filters.ProductID)
	}
	var rows []models.StockAdjustment
	err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]ActivityRow, error) {
	var rows []ActivityRow
	err := r.activity(ctx, ownerID, Filters{}).
		Select(activityColumns).
		Order("sa.created_at DESC").
		Order("sa.id DESC").
		Limit(limit).
		Scan(&rows).
		Error
	return rows, err
}

func (r *repository) TopOutgoing(ctx context.Context, ownerID uuid.UUID, limit int) ([]TopOutgoingRow, error) {
	var rows []TopOutgoingRow
	err := r.db.WithContext(ctx).
		Table("stock_adjustments AS sa").
		Select("sa.id, sa.product_id, p.name AS product_name, sa.units, p.stock AS current_stock, sa.created_at").
		Joins("JOIN products p ON p.id = sa.product_id").
		Where("sa.user_id = ? AND sa.type = ?", ownerID, enums.AdjustmentOutgoing).
		Order("sa.units DESC").
		Order("sa.created_at DESC").
		Limit(limit).
		Scan(&rows).
		Error
	return rows, err
}

func (r *repository) MovementsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]MovementRow, error) {
	var rows []MovementRow
	err := r.db.WithContext(ctx).
		Model(&models.StockAdjustment{}).
		Select("type, units, created_at").
		Where("user_id = ? AND created_at >= ?", ownerID, since).
		Scan(&rows).
		Error
	return rows, err
}
