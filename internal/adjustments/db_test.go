package adjustments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	product "github.com/inventorypro/inventorypro-backend/internal/products"
	"github.com/inventorypro/inventorypro-backend/pkg/db"
	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	"github.com/inventorypro/inventorypro-backend/pkg/migrate"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox"
)

var fixedNow = time.Date(2026, 3, 14, 16, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:adjustments_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := migrate.AutoMigrateModels(context.Background(), conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) *service {
	t.Helper()
	svc, err := NewService(Config{
		DB:       db.NewFromGorm(conn),
		Repo:     NewRepository(conn),
		Products: product.NewRepository(conn),
		Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc.(*service)
}

func mustCreateUser(t *testing.T, conn *gorm.DB, limit int) *models.User {
	t.Helper()
	user := &models.User{
		Email:         fmt.Sprintf("owner_%s@example.com", uuid.NewString()[:8]),
		Username:      "owner_" + uuid.NewString()[:8],
		PasswordHash:  "hash",
		LowStockLimit: limit,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, ownerID uuid.UUID, stock, minStock int) *models.Product {
	t.Helper()
	p := &models.Product{
		UserID:   ownerID,
		Name:     "Hex Bolt",
		SKU:      "SKU-" + uuid.NewString()[:8],
		Price:    decimal.RequireFromString("1.25"),
		Stock:    stock,
		MinStock: minStock,
		Status:   enums.DeriveStatus(stock, minStock),
	}
	if err := conn.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func reloadProduct(t *testing.T, conn *gorm.DB, id uuid.UUID) *models.Product {
	t.Helper()
	var p models.Product
	if err := conn.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &p
}

func countLedger(t *testing.T, conn *gorm.DB, productID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := conn.Model(&models.StockAdjustment{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	return count
}

func outboxEvents(t *testing.T, conn *gorm.DB) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	if err := conn.Order("created_at ASC").Find(&rows).Error; err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	return rows
}
