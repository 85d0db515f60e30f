package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
	"github.com/inventorypro/inventorypro-backend/pkg/enums"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListFilters narrows an owner's product list.
type ListFilters struct {
	Category string
	Status   *enums.ProductStatus
	Search   string
}

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindForOwner loads a product only if it belongs to the owner.
func (r *Repository) FindForOwner(ctx context.Context, ownerID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", productID, ownerID).
		First(&product).
		Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns the owner's products, newest first.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID, filters ListFilters) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if category := strings.TrimSpace(filters.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if search := strings.ToLower(strings.TrimSpace(filters.Search)); search != "" {
		like := "%" + likeEscaper.Replace(search) + "%"
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(sku) LIKE ? ESCAPE '\')`, like, like)
	}

	var rows []models.Product
	err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// SKUExists reports whether the owner already has a product with the sku,
// optionally ignoring one product id.
func (r *Repository) SKUExists(ctx context.Context, ownerID uuid.UUID, sku string, exclude *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("user_id = ? AND sku = ?", ownerID, sku)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateVersioned applies updates only when the stored version still matches
// expectedVersion, bumping the version. It reports whether a row was changed.
func (r *Repository) UpdateVersioned(ctx context.Context, ownerID, productID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND user_id = ? AND version = ?", productID, ownerID, expectedVersion).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes the owner's product and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, ownerID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", productID, ownerID).
		Delete(&models.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
