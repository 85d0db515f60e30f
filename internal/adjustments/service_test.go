package adjustments

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	pkgerrors "github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox/payloads"
)

func TestSubmitValidation(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 5)
	p := mustCreateProduct(t, conn, owner.ID, 10, 5)
	ctx := context.Background()

	cases := []struct {
		name  string
		input SubmitInput
		code  pkgerrors.Code
	}{
		{name: "unknown type", input: SubmitInput{ProductID: p.ID, Type: "sideways", Units: 1}, code: pkgerrors.CodeValidation},
		{name: "zero units", input: SubmitInput{ProductID: p.ID, Type: "incoming", Units: 0}, code: pkgerrors.CodeValidation},
		{name: "negative units", input: SubmitInput{ProductID: p.ID, Type: "outgoing", Units: -3}, code: pkgerrors.CodeValidation},
		{name: "missing product", input: SubmitInput{ProductID: uuid.New(), Type: "incoming", Units: 1}, code: pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, owner.ID, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	t.Run("foreign product is not found", func(t *testing.T) {
		stranger := mustCreateUser(t, conn, 5)
		_, err := svc.Submit(ctx, stranger.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 1})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})

	assert.Zero(t, countLedger(t, conn, p.ID))
	assert.Equal(t, 10, reloadProduct(t, conn, p.ID).Stock)
}

func TestSubmitInsufficientStockLeavesProductUntouched(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 5)
	p := mustCreateProduct(t, conn, owner.ID, 4, 5)

	_, err := svc.Submit(context.Background(), owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 5})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Equal(t, "Insufficient stock", typed.Message())

	after := reloadProduct(t, conn, p.ID)
	assert.Equal(t, 4, after.Stock)
	assert.Equal(t, enums.ProductStatusLowStock, after.Status)
	assert.Equal(t, p.Version, after.Version)
	assert.Zero(t, countLedger(t, conn, p.ID))
	assert.Empty(t, outboxEvents(t, conn))
}

func TestSubmitIncomingAccounting(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 5)
	p := mustCreateProduct(t, conn, owner.ID, 2, 5)

	reason := "  restock from supplier "
	record, err := svc.Submit(context.Background(), owner.ID, SubmitInput{ProductID: p.ID, Type: "incoming", Units: 7, Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, "incoming", record.Type)
	assert.Equal(t, 7, record.Units)
	require.NotNil(t, record.Reason)
	assert.Equal(t, "restock from supplier", *record.Reason)

	after := reloadProduct(t, conn, p.ID)
	assert.Equal(t, 9, after.Stock)
	assert.Equal(t, enums.ProductStatusInStock, after.Status)
	assert.Equal(t, p.Version+1, after.Version)
	require.NotNil(t, after.LastRestocked)
	assert.Equal(t, "2026-03-14", after.LastRestocked.UTC().Format("2006-01-02"))

	var ledger []models.StockAdjustment
	require.NoError(t, conn.Where("product_id = ?", p.ID).Find(&ledger).Error)
	require.Len(t, ledger, 1)
	assert.Equal(t, enums.AdjustmentIncoming, ledger[0].Type)
	assert.Equal(t, 7, ledger[0].Units)
	assert.Equal(t, owner.ID, ledger[0].UserID)
}

func TestSubmitScenarios(t *testing.T) {
	cases := []struct {
		name      string
		stock     int
		minStock  int
		units     int
		wantStock int
		status    enums.ProductStatus
	}{
		{name: "drops to low stock", stock: 8, minStock: 5, units: 5, wantStock: 3, status: enums.ProductStatusLowStock},
		{name: "drops to out of stock", stock: 5, minStock: 5, units: 5, wantStock: 0, status: enums.ProductStatusOutOfStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := openTestDB(t)
			svc := newTestService(t, conn)
			owner := mustCreateUser(t, conn, 5)
			p := mustCreateProduct(t, conn, owner.ID, tc.stock, tc.minStock)

			record, err := svc.Submit(context.Background(), owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: tc.units})
			require.NoError(t, err)
			assert.Equal(t, p.ID, record.ProductID)
			assert.NotEqual(t, uuid.Nil, record.ID)

			after := reloadProduct(t, conn, p.ID)
			assert.Equal(t, tc.wantStock, after.Stock)
			assert.Equal(t, tc.status, after.Status)
			assert.Nil(t, after.LastRestocked)
			assert.Equal(t, int64(1), countLedger(t, conn, p.ID))
		})
	}
}

func TestSubmitThresholdCrossingAlertsOnce(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 5)
	p := mustCreateProduct(t, conn, owner.ID, 10, 5)
	ctx := context.Background()

	_, err := svc.Submit(ctx, owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 6})
	require.NoError(t, err)

	events := outboxEvents(t, conn)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventLowStockAlertRequested, events[0].EventType)
	assert.Equal(t, enums.AggregateProduct, events[0].AggregateType)
	assert.Equal(t, p.ID, events[0].AggregateID)

	envelope, _, err := outbox.DecodeEnvelope(events[0].Payload)
	require.NoError(t, err)
	var alert payloads.LowStockAlertRequested
	require.NoError(t, json.Unmarshal(envelope.Data, &alert))
	assert.Equal(t, owner.Email, alert.OwnerEmail)
	assert.Equal(t, p.Name, alert.ProductName)
	assert.Equal(t, 4, alert.CurrentStock)
	assert.Equal(t, 5, alert.Threshold)
	assert.Equal(t, 10, alert.PreviousStock)

	// Already at or below the limit: no further alert.
	_, err = svc.Submit(ctx, owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 1})
	require.NoError(t, err)
	assert.Len(t, outboxEvents(t, conn), 1)

	// Emptying the product is not an alert either.
	_, err = svc.Submit(ctx, owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 3})
	require.NoError(t, err)
	assert.Len(t, outboxEvents(t, conn), 1)
	assert.Equal(t, enums.ProductStatusOutOfStock, reloadProduct(t, conn, p.ID).Status)
}

func TestSubmitUsesOwnerLimitNotMinStock(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 2)
	p := mustCreateProduct(t, conn, owner.ID, 6, 5)

	_, err := svc.Submit(context.Background(), owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 2})
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusLowStock, reloadProduct(t, conn, p.ID).Status)
	assert.Empty(t, outboxEvents(t, conn))
}

func TestSubmitReadBackMatchesWrite(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 5)
	p := mustCreateProduct(t, conn, owner.ID, 20, 5)

	_, err := svc.Submit(context.Background(), owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 12})
	require.NoError(t, err)

	first := reloadProduct(t, conn, p.ID)
	second := reloadProduct(t, conn, p.ID)
	assert.Equal(t, 8, first.Stock)
	assert.Equal(t, enums.ProductStatusInStock, first.Status)
	assert.Equal(t, first.Stock, second.Stock)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Version, second.Version)
}

func TestSubmitRetriesOnVersionRace(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 5)
	p := mustCreateProduct(t, conn, owner.ID, 10, 2)

	calls := 0
	svc.beforeUpdate = func(ctx context.Context, tx *gorm.DB, current *models.Product) error {
		calls++
		if calls > 1 {
			return nil
		}
		return tx.Model(&models.Product{}).Where("id = ?", current.ID).Update("version", gorm.Expr("version + 1")).Error
	}

	_, err := svc.Submit(context.Background(), owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 7, reloadProduct(t, conn, p.ID).Stock)
	assert.Equal(t, int64(1), countLedger(t, conn, p.ID))
}

func TestSubmitGivesUpAfterMaxAttempts(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 5)
	p := mustCreateProduct(t, conn, owner.ID, 10, 2)

	calls := 0
	svc.beforeUpdate = func(ctx context.Context, tx *gorm.DB, current *models.Product) error {
		calls++
		return tx.Model(&models.Product{}).Where("id = ?", current.ID).Update("version", gorm.Expr("version + 1")).Error
	}

	_, err := svc.Submit(context.Background(), owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 3})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, defaultMaxAttempts, calls)
	assert.Equal(t, 10, reloadProduct(t, conn, p.ID).Stock)
	assert.Zero(t, countLedger(t, conn, p.ID))
}

func TestListAndExport(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 0)
	p := mustCreateProduct(t, conn, owner.ID, 50, 2)
	ctx := context.Background()

	for _, in := range []SubmitInput{
		{ProductID: p.ID, Type: "incoming", Units: 5},
		{ProductID: p.ID, Type: "outgoing", Units: 3},
		{ProductID: p.ID, Type: "outgoing", Units: 4},
	} {
		_, err := svc.Submit(ctx, owner.ID, in)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, owner.ID, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Items, 3)
	assert.Equal(t, p.Name, page.Items[0].ProductName)
	assert.Equal(t, owner.Username, page.Items[0].Username)

	outgoing, err := svc.List(ctx, owner.ID, ListInput{Type: "outgoing", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), outgoing.Total)
	assert.Len(t, outgoing.Items, 1)

	stranger := mustCreateUser(t, conn, 5)
	empty, err := svc.List(ctx, stranger.ID, ListInput{})
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.Items)

	_, err = svc.List(ctx, owner.ID, ListInput{Type: "bogus"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	file, err := svc.Export(ctx, owner.ID, "incoming", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "stock-adjustments-2026-03-14.csv", file.Filename)
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Product ID,Type,Units,Reason,Created At", lines[0])
	assert.Contains(t, lines[1], ","+p.ID.String()+",incoming,5,,")
}

func TestCrossesLowStock(t *testing.T) {
	assert.True(t, crossesLowStock(10, 4, 5))
	assert.True(t, crossesLowStock(6, 5, 5))
	assert.False(t, crossesLowStock(5, 4, 5))
	assert.False(t, crossesLowStock(10, 0, 5))
	assert.False(t, crossesLowStock(10, 6, 5))
}

func TestSubmitRejectsUnitsBeyondColumnRange(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	owner := mustCreateUser(t, conn, 5)
	ctx := context.Background()

	t.Run("huge incoming is invalid, not insufficient", func(t *testing.T) {
		p := mustCreateProduct(t, conn, owner.ID, 10, 5)
		_, err := svc.Submit(ctx, owner.ID, SubmitInput{ProductID: p.ID, Type: "incoming", Units: math.MaxInt64})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		assert.Equal(t, 10, reloadProduct(t, conn, p.ID).Stock)
	})

	t.Run("units above int32", func(t *testing.T) {
		p := mustCreateProduct(t, conn, owner.ID, 10, 5)
		_, err := svc.Submit(ctx, owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: math.MaxInt32 + 1})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	})

	t.Run("resulting stock above int32", func(t *testing.T) {
		p := mustCreateProduct(t, conn, owner.ID, 10, 5)
		_, err := svc.Submit(ctx, owner.ID, SubmitInput{ProductID: p.ID, Type: "incoming", Units: math.MaxInt32 - 5})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		assert.Equal(t, 10, reloadProduct(t, conn, p.ID).Stock)
		assert.Zero(t, countLedger(t, conn, p.ID))
	})

	t.Run("largest representable stock is accepted", func(t *testing.T) {
		p := mustCreateProduct(t, conn, owner.ID, 10, 5)
		_, err := svc.Submit(ctx, owner.ID, SubmitInput{ProductID: p.ID, Type: "incoming", Units: math.MaxInt32 - 10})
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt32, reloadProduct(t, conn, p.ID).Stock)
	})
}

type missingRecipientRepo struct {
	Repository
}

func (r missingRecipientRepo) WithTx(tx *gorm.DB) Repository {
	return missingRecipientRepo{Repository: r.Repository.WithTx(tx)}
}

func (missingRecipientRepo) LoadRecipient(context.Context, uuid.UUID) (*Recipient, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestSubmitSkipsAlertWhenOwnerSettingsMissing(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	svc.repo = missingRecipientRepo{Repository: svc.repo}
	owner := mustCreateUser(t, conn, 5)
	p := mustCreateProduct(t, conn, owner.ID, 8, 2)

	record, err := svc.Submit(context.Background(), owner.ID, SubmitInput{ProductID: p.ID, Type: "outgoing", Units: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, record.Units)
	assert.Equal(t, 4, reloadProduct(t, conn, p.ID).Stock)
	assert.Equal(t, int64(1), countLedger(t, conn, p.ID))
	assert.Empty(t, outboxEvents(t, conn))
}
