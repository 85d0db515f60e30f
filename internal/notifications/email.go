package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// LowStockEmail carries the fields rendered into a low-stock alert.
type LowStockEmail struct {
	To           string
	ProductName  string
	CurrentStock int
	Threshold    int
}

var lowStockTemplate = template.Must(template.New("low_stock").Parse(`<h2>Low Stock Alert</h2>
<p><strong>{{.ProductName}}</strong> has dropped to <strong>{{.CurrentStock}} units</strong>.</p>
<p>Your alert threshold is set to <strong>{{.Threshold}} units</strong>.</p>
<p><a href="{{.ProductsURL}}">View Products</a></p>
`))

// Subject returns the alert subject line.
func (e LowStockEmail) Subject() string {
	return "Low Stock Alert: " + e.ProductName
}

// RenderHTML renders the alert body with links rooted at appURL.
func (e LowStockEmail) RenderHTML(appURL string) (string, error) {
	var buf bytes.Buffer
	err := lowStockTemplate.Execute(&buf, struct {
		LowStockEmail
		ProductsURL string
	}{
		LowStockEmail: e,
		ProductsURL:   strings.TrimRight(appURL, "/") + "/dashboard/products",
	})
	if err != nil {
		return "", fmt.Errorf("render low stock email: %w", err)
	}
	return buf.String(), nil
}

// RenderText is the plain-text alternative of RenderHTML.
func (e LowStockEmail) RenderText(appURL string) string {
	return fmt.Sprintf(
		"%s has dropped to %d units. Your alert threshold is set to %d units.\nView products: %s/dashboard/products\n",
		e.ProductName, e.CurrentStock, e.Threshold, strings.TrimRight(appURL, "/"),
	)
}
