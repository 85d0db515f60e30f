package payloads

import "github.com/google/uuid"

// LowStockAlertRequested is emitted when an adjustment moves a product from
// above the owner's low-stock limit to at or below it, but not to zero.
type LowStockAlertRequested struct {
	ProductID     uuid.UUID `json:"productId"`
	ProductName   string    `json:"productName"`
	SKU           string    `json:"sku"`
	OwnerID       uuid.UUID `json:"ownerId"`
	OwnerEmail    string    `json:"ownerEmail"`
	CurrentStock  int       `json:"currentStock"`
	Threshold     int       `json:"threshold"`
	PreviousStock int       `json:"previousStock"`
	AdjustmentID  uuid.UUID `json:"adjustmentId"`
}
