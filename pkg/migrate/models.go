package migrate

import (
	"context"

	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
)

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Product{},
		&models.StockAdjustment{},
		&models.OutboxEvent{},
		&models.OutboxDLQ{},
	}
}

// AutoMigrateModels creates or updates tables from the gorm models. It backs
// the sqlite driver and in-memory test databases.
func AutoMigrateModels(ctx context.Context, conn *gorm.DB) error {
	return conn.WithContext(ctx).AutoMigrate(Models()...)
}
