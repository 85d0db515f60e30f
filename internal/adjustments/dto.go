package adjustments

import (
	"time"

	"github.com/google/uuid"

	"github.com/inventorypro/inventorypro-backend/pkg/db/models"
)

// AdjustmentDTO is the created ledger record returned to clients.
type AdjustmentDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	Type      string    `json:"type"`
	Units     int       `json:"units"`
	Reason    *string   `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActivityDTO is a ledger row with product and user context.
type ActivityDTO struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	ProductSKU  string    `json:"productSku"`
	Type        string    `json:"type"`
	Units       int       `json:"units"`
	Reason      *string   `json:"reason"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newAdjustmentDTO(row *models.StockAdjustment) *AdjustmentDTO {
	return &AdjustmentDTO{
		ID:        row.ID,
		ProductID: row.ProductID,
		UserID:    row.UserID,
		Type:      row.Type.String(),
		Units:     row.Units,
		Reason:    row.Reason,
		CreatedAt: row.CreatedAt,
	}
}

// NewActivityDTOs maps joined ledger rows to their response shape.
func NewActivityDTOs(rows []ActivityRow) []ActivityDTO {
	out := make([]ActivityDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ActivityDTO{
			ID:          row.ID,
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			ProductSKU:  row.ProductSKU,
			Type:        row.Type.String(),
			Units:       row.Units,
			Reason:      row.Reason,
			Username:    row.Username,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out
}
