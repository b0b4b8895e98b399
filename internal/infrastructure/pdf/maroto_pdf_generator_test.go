package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-ledger/internal/application/dto"
)

func TestGenerateStockReport(t *testing.T) {
	expiry := time.Now().AddDate(0, 0, 10)
	report := &dto.StockReportDTO{
		Title:        "Clínica Central",
		GeneratedAt:  time.Now(),
		ExpiringDays: 30,
		Summary: dto.StockSummaryDTO{
			TotalItems: 3, TotalValue: decimal.NewFromInt(1250000), LowStockCount: 1,
			ByCategory: map[string]int64{"medication": 3},
		},
		LowStock: []dto.ItemResponse{{SKU: "PAR500", Name: "Paracetamol", CurrentStock: 0, MinimumStock: 20, IsOutOfStock: true}},
		Expiring: []dto.ItemResponse{{SKU: "AMOX", Name: "Amoxicilina", BatchNumber: "L-77", ExpiryDate: &expiry, CurrentStock: 12}},
	}

	doc, err := NewMarotoPDFGenerator().GenerateStockReport(context.Background(), report)
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.Equal(t, "%PDF", string(doc[:4]))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "25", formatMoney("25"))
	assert.Equal(t, "25.000", formatMoney("25000"))
	assert.Equal(t, "1.000.000", formatMoney("1000000"))
	assert.Equal(t, "-1.500", formatMoney("-1500"))
}
