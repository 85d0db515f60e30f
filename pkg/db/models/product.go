package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/enums"
)

// Product is an owner-scoped catalog entry with its current stock level.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_products_user_sku,priority:1;index"`
	Name          string              `gorm:"column:name;not null"`
	SKU           string              `gorm:"column:sku;not null;uniqueIndex:ux_products_user_sku,priority:2"`
	Category      string              `gorm:"column:category;not null;default:''"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Stock         int                 `gorm:"column:stock;not null;default:0"`
	MinStock      int                 `gorm:"column:min_stock;not null;default:0"`
	Status        enums.ProductStatus `gorm:"column:status;type:text;not null"`
	Supplier      *string             `gorm:"column:supplier"`
	Location      *string             `gorm:"column:location"`
	Description   *string             `gorm:"column:description"`
	LastRestocked *time.Time          `gorm:"column:last_restocked;type:date"`
	Version       int                 `gorm:"column:version;not null;default:1"`
	User          *User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}
