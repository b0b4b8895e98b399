// Package pdf genera el reporte de existencias en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título del reporte  │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: ítems / valor / bajo stock / agotados / vencidos   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Nombre | Stock | Mínimo | Ubicación            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Nombre | Lote | Vence | Stock                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/medstock-ledger/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa analytics.StockReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateStockReport genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateStockReport(_ context.Context, report *dto.StockReportDTO) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de existencias", true).
		WithAuthor(nonEmpty(report.Title, "medstock-ledger"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report.Summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle(fmt.Sprintf("BAJO STOCK (%d)", len(report.LowStock))))
	m.AddRows(tableHeaderRow("SKU", "Nombre", "Stock", "Mínimo", "Ubicación"))
	for _, it := range report.LowStock {
		m.AddRows(tableRow(it.IsOutOfStock,
			it.SKU, it.Name,
			strconv.FormatInt(it.CurrentStock, 10),
			strconv.FormatInt(it.MinimumStock, 10),
			nonEmpty(it.Location, "—"),
		))
	}

	m.AddRows(line.NewRow(4))
	m.AddRows(sectionTitle(fmt.Sprintf("VENCEN EN %d DÍAS O MENOS (%d)", report.ExpiringDays, len(report.Expiring))))
	m.AddRows(tableHeaderRow("SKU", "Nombre", "Lote", "Vence", "Stock"))
	for _, it := range report.Expiring {
		expiry := "—"
		if it.ExpiryDate != nil {
			expiry = it.ExpiryDate.Format("02/01/2006")
		}
		m.AddRows(tableRow(it.IsExpired,
			it.SKU, it.Name,
			nonEmpty(it.BatchNumber, "—"),
			expiry,
			strconv.FormatInt(it.CurrentStock, 10),
		))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y fecha de generación (der).
func headerRow(report *dto.StockReportDTO) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(nonEmpty(report.Title, "medstock-ledger"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Reporte de existencias", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

// summaryRow: totales del resumen en cinco columnas.
func summaryRow(s dto.StockSummaryDTO) core.Row {
	cell := func(label, value string, size int) core.Col {
		return col.New(size).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1, Align: align.Center}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Top: 6, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		cell("Ítems activos", strconv.FormatInt(s.TotalItems, 10), 2),
		cell("Valor total", "$"+formatMoney(s.TotalValue.StringFixed(0)), 3),
		cell("Bajo stock", strconv.FormatInt(s.LowStockCount, 10), 2),
		cell("Agotados", strconv.FormatInt(s.OutOfStockCount, 10), 2),
		cell("Por vencer / vencidos", fmt.Sprintf("%d / %d", s.ExpiringSoonCount, s.ExpiredCount), 3),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

// columnas de las tablas: 2 | 5 | 2 | 1 | 2
var tableSizes = [5]int{2, 5, 2, 1, 2}

func tableHeaderRow(labels ...string) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		cols = append(cols, col.New(tableSizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1, Color: colorGray,
		})))
	}
	return row.New(6).Add(cols...)
}

// tableRow: una fila de detalle; highlight resalta agotados o vencidos.
func tableRow(highlight bool, values ...string) core.Row {
	p := props.Text{Size: 8, Top: 1, Left: 1}
	if highlight {
		p.Color = colorAlert
		p.Style = fontstyle.Bold
	}
	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		cols = append(cols, col.New(tableSizes[i]).Add(text.New(v, p)))
	}
	return row.New(6).Add(cols...)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if len(s) > 0 && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
