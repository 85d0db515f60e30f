package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		stock, min int
		want       ProductStatus
	}{
		{stock: 0, min: 0, want: ProductStatusOutOfStock},
		{stock: 0, min: 5, want: ProductStatusOutOfStock},
		{stock: 1, min: 5, want: ProductStatusLowStock},
		{stock: 5, min: 5, want: ProductStatusLowStock},
		{stock: 6, min: 5, want: ProductStatusInStock},
		{stock: 1, min: 0, want: ProductStatusInStock},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveStatus(tc.stock, tc.min), "stock=%d min=%d", tc.stock, tc.min)
	}
}

func TestParseEnums(t *testing.T) {
	got, err := ParseAdjustmentType("incoming")
	require.NoError(t, err)
	assert.Equal(t, AdjustmentIncoming, got)

	_, err = ParseAdjustmentType("sideways")
	assert.EqualError(t, err, `invalid adjustment type "sideways"`)

	status, err := ParseProductStatus("Low Stock")
	require.NoError(t, err)
	assert.Equal(t, ProductStatusLowStock, status)
	_, err = ParseProductStatus("low")
	assert.Error(t, err)

	assert.Equal(t, -1, AdjustmentOutgoing.Sign())
	assert.Equal(t, 1, AdjustmentIncoming.Sign())
	assert.True(t, EventLowStockAlertRequested.IsValid())
	assert.False(t, OutboxEventType("product.deleted").IsValid())
}
