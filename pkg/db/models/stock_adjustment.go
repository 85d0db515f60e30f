package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/enums"
)

// StockAdjustment is an append-only ledger row recording a stock movement.
type StockAdjustment struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.AdjustmentType `gorm:"column:type;type:text;not null"`
	Units     int                  `gorm:"column:units;not null"`
	Reason    *string              `gorm:"column:reason"`
	Product   *Product             `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}

func (a *StockAdjustment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
