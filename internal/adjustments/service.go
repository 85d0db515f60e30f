package adjustments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/inventorypro/inventorypro-backend/internal/products"
	"github.com/inventorypro/inventorypro-backend/pkg/csvexport"
	"github.com/inventorypro/inventorypro-backend/pkg/db"
	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	pkgerrors "github.com/inventorypro/inventorypro-backend/pkg/errors"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
	"github.com/inventorypro/inventorypro-backend/pkg/metrics"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox"
	"github.com/inventorypro/inventorypro-backend/pkg/outbox/payloads"
	"github.com/inventorypro/inventorypro-backend/pkg/pagination"
)

const (
	defaultMaxAttempts = 3
	// maxStock matches the integer columns behind products.stock and
	// stock_adjustments.units.
	maxStock = math.MaxInt32
)

var errVersionMismatch = errors.New("product version changed")

// Service records stock movements against the owner's products.
type Service interface {
	Submit(ctx context.Context, ownerID uuid.UUID, input SubmitInput) (*AdjustmentDTO, error)
	List(ctx context.Context, ownerID uuid.UUID, input ListInput) (*pagination.Page[ActivityDTO], error)
	Export(ctx context.Context, ownerID uuid.UUID, adjustmentType string, now time.Time) (*csvexport.File, error)
}

// SubmitInput is a requested stock movement.
type SubmitInput struct {
	ProductID uuid.UUID
	Type      string
	Units     int
	Reason    *string
}

// ListInput carries ledger filters and page parameters.
type ListInput struct {
	Type      string
	ProductID *uuid.UUID
	Page      int
	Limit     int
}

// Config wires the service dependencies.
type Config struct {
	DB          *db.Client
	Repo        Repository
	Products    *product.Repository
	Outbox      *outbox.Service
	Metrics     *metrics.InventoryMetrics
	Logger      *logger.Logger
	MaxAttempts int
	Now         func() time.Time
}

type service struct {
	db          *db.Client
	repo        Repository
	products    *product.Repository
	outbox      *outbox.Service
	metrics     *metrics.InventoryMetrics
	logg        *logger.Logger
	maxAttempts int
	now         func() time.Time

	// beforeUpdate runs between the product read and the versioned write.
	beforeUpdate func(ctx context.Context, tx *gorm.DB, current *models.Product) error
}

// NewService wires an adjustment service.
func NewService(cfg Config) (Service, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if cfg.Repo == nil {
		return nil, fmt.Errorf("adjustment repository required")
	}
	if cfg.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if cfg.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &service{
		db:          cfg.DB,
		repo:        cfg.Repo,
		products:    cfg.Products,
		outbox:      cfg.Outbox,
		metrics:     cfg.Metrics,
		logg:        cfg.Logger,
		maxAttempts: cfg.MaxAttempts,
		now:         cfg.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, ownerID uuid.UUID, input SubmitInput) (*AdjustmentDTO, error) {
	adjustmentType, err := enums.ParseAdjustmentType(strings.TrimSpace(input.Type))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "type must be incoming or outgoing")
	}
	if input.Units <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "units must be greater than zero")
	}
	if input.Units > maxStock {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "units must be at most %d", maxStock)
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		record, err := s.apply(ctx, ownerID, adjustmentType, input)
		switch {
		case err == nil:
			s.metrics.IncAdjustment(adjustmentType.String(), metrics.ResultApplied)
			return newAdjustmentDTO(record), nil
		case errors.Is(err, errVersionMismatch):
			s.metrics.IncAdjustment(adjustmentType.String(), metrics.ResultRetried)
			s.warn(ctx, input.ProductID, attempt)
			continue
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
			s.metrics.IncAdjustment(adjustmentType.String(), metrics.ResultInsufficient)
			return nil, err
		default:
			s.metrics.IncAdjustment(adjustmentType.String(), metrics.ResultFailed)
			return nil, err
		}
	}

	s.metrics.IncAdjustment(adjustmentType.String(), metrics.ResultConflict)
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product was modified concurrently, please retry").
		WithDetails(map[string]any{"productId": input.ProductID, "attempts": s.maxAttempts})
}

// apply runs one read-compute-write cycle in a single transaction.
func (s *service) apply(ctx context.Context, ownerID uuid.UUID, adjustmentType enums.AdjustmentType, input SubmitInput) (*models.StockAdjustment, error) {
	var record *models.StockAdjustment
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		ledger := s.repo.WithTx(tx)

		current, err := products.FindForOwner(ctx, ownerID, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}

		previousStock := current.Stock
		newStock := previousStock + adjustmentType.Sign()*input.Units
		if newStock < 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, pkgerrors.InsufficientStockMessage).
				WithDetails(map[string]any{"available": previousStock, "requested": input.Units})
		}
		if newStock > maxStock {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "resulting stock exceeds %d", maxStock).
				WithDetails(map[string]any{"available": previousStock, "requested": input.Units})
		}

		if s.beforeUpdate != nil {
			if err := s.beforeUpdate(ctx, tx, current); err != nil {
				return err
			}
		}

		updates := map[string]any{
			"stock":  newStock,
			"status": enums.DeriveStatus(newStock, current.MinStock),
		}
		if adjustmentType == enums.AdjustmentIncoming {
			now := s.now().UTC()
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			updates["last_restocked"] = today
		}

		ok, err := products.UpdateVersioned(ctx, ownerID, current.ID, current.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product stock")
		}
		if !ok {
			return errVersionMismatch
		}

		record = &models.StockAdjustment{
			ProductID: current.ID,
			UserID:    ownerID,
			Type:      adjustmentType,
			Units:     input.Units,
			Reason:    trimmedReason(input.Reason),
		}
		if err := ledger.Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert stock adjustment")
		}

		recipient, err := ledger.LoadRecipient(ctx, ownerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.skipAlert(ctx, current.ID)
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load owner settings")
		}
		if !crossesLowStock(previousStock, newStock, recipient.LowStockLimit) {
			return nil
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventLowStockAlertRequested,
			AggregateType: enums.AggregateProduct,
			AggregateID:   current.ID,
			Actor:         &outbox.ActorRef{UserID: ownerID, Username: recipient.Username},
			Data: payloads.LowStockAlertRequested{
				ProductID:     current.ID,
				ProductName:   current.Name,
				SKU:           current.SKU,
				OwnerID:       ownerID,
				OwnerEmail:    recipient.Email,
				CurrentStock:  newStock,
				Threshold:     recipient.LowStockLimit,
				PreviousStock: previousStock,
				AdjustmentID:  record.ID,
			},
		}
		if _, err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert low stock alert")
		}
		s.metrics.IncLowStockAlert()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// crossesLowStock reports whether a movement takes stock from above the
// owner's limit to at or below it without emptying it.
func crossesLowStock(previousStock, newStock, limit int) bool {
	return newStock > 0 && newStock <= limit && previousStock > limit
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, input ListInput) (*pagination.Page[ActivityDTO], error) {
	filters, err := buildFilters(input.Type, input.ProductID)
	if err != nil {
		return nil, err
	}
	params := pagination.Params{Page: input.Page, Limit: input.Limit}
	rows, total, err := s.repo.List(ctx, ownerID, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list stock adjustments")
	}
	page := pagination.NewPage(NewActivityDTOs(rows), total, params)
	return &page, nil
}

var exportHeader = []string{"ID", "Product ID", "Type", "Units", "Reason", "Created At"}

func (s *service) Export(ctx context.Context, ownerID uuid.UUID, adjustmentType string, now time.Time) (*csvexport.File, error) {
	filters, err := buildFilters(adjustmentType, nil)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForExport(ctx, ownerID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list stock adjustments")
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.ID.String(),
			row.ProductID.String(),
			row.Type.String(),
			strconv.Itoa(row.Units),
			csvexport.String(row.Reason),
			csvexport.Timestamp(row.CreatedAt),
		})
	}
	data, err := csvexport.Write(exportHeader, records)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render stock adjustments export")
	}
	return &csvexport.File{Filename: csvexport.Filename("stock-adjustments", now), Data: data}, nil
}

func buildFilters(rawType string, productID *uuid.UUID) (Filters, error) {
	filters := Filters{ProductID: productID}
	if raw := strings.TrimSpace(rawType); raw != "" {
		adjustmentType, err := enums.ParseAdjustmentType(raw)
		if err != nil {
			return Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "type must be incoming or outgoing")
		}
		filters.Type = &adjustmentType
	}
	return filters, nil
}

func (s *service) warn(ctx context.Context, productID uuid.UUID, attempt int) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"product_id": productID.String(),
		"attempt":    attempt,
	})
	s.logg.Warn(ctx, "stock adjustment lost version race")
}

func (s *service) skipAlert(ctx context.Context, productID uuid.UUID) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithProductID(ctx, productID.String()), "owner settings missing, low stock alert skipped")
}

func trimmedReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
