package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/csvexport"
	"github.com/inventorypro/inventorypro-backend/pkg/db"
	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
	"github.com/inventorypro/inventorypro-backend/pkg/enums"
	pkgerrors "github.com/inventorypro/inventorypro-backend/pkg/errors"
)

// Service exposes owner-scoped product management operations.
type Service interface {
	List(ctx context.Context, ownerID uuid.UUID, input ListInput) ([]ProductDTO, error)
	Get(ctx context.Context, ownerID, productID uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, ownerID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, ownerID, productID uuid.UUID) error
	Export(ctx context.Context, ownerID uuid.UUID, now time.Time) (*csvexport.File, error)
}

// ListInput carries optional list filters.
type ListInput struct {
	Category string
	Status   string
	Search   string
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	Name        string
	SKU         string
	Category    string
	Price       decimal.Decimal
	Stock       int
	MinStock    int
	Supplier    *string
	Location    *string
	Description *string
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Name        *string
	SKU         *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	MinStock    *int
	Supplier    *string
	Location    *string
	Description *string
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.SKU == nil && in.Category == nil && in.Price == nil &&
		in.Stock == nil && in.MinStock == nil && in.Supplier == nil && in.Location == nil &&
		in.Description == nil
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, input ListInput) ([]ProductDTO, error) {
	filters := ListFilters{Category: input.Category, Search: input.Search}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := enums.ParseProductStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}

	rows, err := s.repo.List(ctx, ownerID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, ownerID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, s.repo, ownerID, productID)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateInput) (*ProductDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if input.Name == "" || input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and sku are required")
	}
	if err := validateQuantities(input.Price, input.Stock, input.MinStock); err != nil {
		return nil, err
	}

	exists, err := s.repo.SKUExists(ctx, ownerID, input.SKU, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check sku")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this sku already exists")
	}

	product := &models.Product{
		UserID:      ownerID,
		Name:        input.Name,
		SKU:         input.SKU,
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		MinStock:    input.MinStock,
		Status:      enums.DeriveStatus(input.Stock, input.MinStock),
		Supplier:    trimmedPtr(input.Supplier),
		Location:    trimmedPtr(input.Location),
		Description: trimmedPtr(input.Description),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a product with this sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, ownerID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one field must be provided")
	}

	var updated *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := s.load(ctx, txRepo, ownerID, productID)
		if err != nil {
			return err
		}

		updates, err := s.buildUpdates(ctx, txRepo, current, input)
		if err != nil {
			return err
		}

		ok, err := txRepo.UpdateVersioned(ctx, ownerID, productID, current.Version, updates)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a product with this sku already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product was modified concurrently")
		}

		updated, err = s.load(ctx, txRepo, ownerID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	dto := NewProductDTO(updated)
	return &dto, nil
}

func (s *service) buildUpdates(ctx context.Context, repo *Repository, current *models.Product, input UpdateInput) (map[string]any, error) {
	updates := map[string]any{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku cannot be empty")
		}
		if sku != current.SKU {
			exists, err := repo.SKUExists(ctx, current.UserID, sku, &current.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check sku")
			}
			if exists {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this sku already exists")
			}
		}
		updates["sku"] = sku
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Supplier != nil {
		updates["supplier"] = trimmedPtr(input.Supplier)
	}
	if input.Location != nil {
		updates["location"] = trimmedPtr(input.Location)
	}
	if input.Description != nil {
		updates["description"] = trimmedPtr(input.Description)
	}

	price := current.Price
	if input.Price != nil {
		price = input.Price.Round(2)
		updates["price"] = price
	}
	stock := current.Stock
	if input.Stock != nil {
		stock = *input.Stock
		updates["stock"] = stock
	}
	minStock := current.MinStock
	if input.MinStock != nil {
		minStock = *input.MinStock
		updates["min_stock"] = minStock
	}
	if err := validateQuantities(price, stock, minStock); err != nil {
		return nil, err
	}
	if input.Stock != nil || input.MinStock != nil {
		updates["status"] = enums.DeriveStatus(stock, minStock)
	}
	return updates, nil
}

func (s *service) Delete(ctx context.Context, ownerID, productID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, ownerID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

var exportHeader = []string{
	"ID", "Name", "Description", "SKU", "Category", "Stock", "Price", "Status",
	"Supplier", "Location", "Minimum Stock", "Last Restock Date", "Created At", "Updated At",
}

func (s *service) Export(ctx context.Context, ownerID uuid.UUID, now time.Time) (*csvexport.File, error) {
	rows, err := s.repo.List(ctx, ownerID, ListFilters{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	records := make([][]string, 0, len(rows))
	for _, p := range rows {
		records = append(records, []string{
			p.ID.String(),
			p.Name,
			csvexport.String(p.Description),
			p.SKU,
			p.Category,
			strconv.Itoa(p.Stock),
			p.Price.StringFixed(2),
			p.Status.String(),
			csvexport.String(p.Supplier),
			csvexport.String(p.Location),
			strconv.Itoa(p.MinStock),
			csvexport.Date(p.LastRestocked),
			csvexport.Timestamp(p.CreatedAt),
			csvexport.Timestamp(p.UpdatedAt),
		})
	}

	data, err := csvexport.Write(exportHeader, records)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render products export")
	}
	return &csvexport.File{Filename: csvexport.Filename("products", now), Data: data}, nil
}

func (s *service) load(ctx context.Context, repo *Repository, ownerID, productID uuid.UUID) (*models.Product, error) {
	product, err := repo.FindForOwner(ctx, ownerID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

func validateQuantities(price decimal.Decimal, stock, minStock int) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if minStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min stock cannot be negative")
	}
	return nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
