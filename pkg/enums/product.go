package enums

// ProductStatus is always derived from stock and the product's minimum,
// never set directly by callers.
type ProductStatus string

const (
	ProductStatusInStock    ProductStatus = "In Stock"
	ProductStatusLowStock   ProductStatus = "Low Stock"
	ProductStatusOutOfStock ProductStatus = "Out of Stock"
)

var productStatuses = []ProductStatus{ProductStatusInStock, ProductStatusLowStock, ProductStatusOutOfStock}

func (s ProductStatus) String() string { return string(s) }

// ParseProductStatus accepts the display labels used by the status filter.
func ParseProductStatus(value string) (ProductStatus, error) {
	return parse(productStatuses, "product status", value)
}

// DeriveStatus: zero stock is out of stock, stock at or below the minimum is low.
func DeriveStatus(stock, minStock int) ProductStatus {
	switch {
	case stock <= 0:
		return ProductStatusOutOfStock
	case stock <= minStock:
		return ProductStatusLowStock
	default:
		return ProductStatusInStock
	}
}
