package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
)

type StockStatusJobParams struct {
	Logger *logger.Logger
	DB     txRunner
}

// NewStockStatusJob rewrites product status wherever it no longer matches
// the status derived from stock and min_stock. Rows are updated with a
// version guard so a concurrent adjustment wins.
func NewStockStatusJob(params StockStatusJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	return &stockStatusJob{logg: params.Logger, db: params.DB}, nil
}

type stockStatusJob struct {
	logg *logger.Logger
	db   txRunner
}

type statusRow struct {
	ID       uuid.UUID           `gorm:"column:id"`
	Stock    int                 `gorm:"column:stock"`
	MinStock int                 `gorm:"column:min_stock"`
	Status   enums.ProductStatus `gorm:"column:status"`
	Version  int                 `gorm:"column:version"`
}

func (j *stockStatusJob) Name() string { return "stock-status-reconcile" }

func (j *stockStatusJob) Run(ctx context.Context) error {
	var rows []statusRow
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.WithContext(ctx).
			Model(&models.Product{}).
			Select("id, stock, min_stock, status, version").
			Order("id").
			Scan(&rows).
			Error
	})
	if err != nil {
		return fmt.Errorf("stock status scan: %w", err)
	}

	var (
		repaired int64
		errs     []error
	)
	for _, row := range rows {
		want := enums.DeriveStatus(row.Stock, row.MinStock)
		if row.Status == want {
			continue
		}
		affected, err := j.repair(ctx, row, want)
		if err != nil {
			errs = append(errs, fmt.Errorf("repair product %s: %w", row.ID, err))
			continue
		}
		repaired += affected
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"products_scanned":  len(rows),
		"products_repaired": repaired,
		"products_failed":   len(errs),
	}), "stock status reconcile complete")
	return multierr.Combine(errs...)
}

func (j *stockStatusJob) repair(ctx context.Context, row statusRow, want enums.ProductStatus) (int64, error) {
	var affected int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND version = ?", row.ID, row.Version).
			Updates(map[string]any{
				"status":  want,
				"version": gorm.Expr("version + 1"),
			})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}
