package billing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var billTemplate = template.Must(template.New("bill.html").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).ParseFS(templateFS, "templates/bill.html"))

// Renderer converts HTML documents to PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

func renderBillHTML(bill *Bill, payments []Payment) (string, error) {
	var buf bytes.Buffer
	err := billTemplate.Execute(&buf, map[string]any{
		"Bill":     bill,
		"Payments": payments,
	})
	if err != nil {
		return "", fmt.Errorf("render bill template: %w", err)
	}
	return buf.String(), nil
}
