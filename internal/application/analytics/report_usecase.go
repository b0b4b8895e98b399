package analytics

import (
	"context"
	"fmt"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
)

// StockReportGenerator renderiza el reporte de existencias (PDF).
type StockReportGenerator interface {
	GenerateStockReport(ctx context.Context, report *dto.StockReportDTO) ([]byte, error)
}

// ReportUseCase arma el reporte de existencias: resumen, bajo stock y próximos a vencer.
type ReportUseCase struct {
	stock     *StockAnalyticsUseCase
	generator StockReportGenerator
	title     string
}

// NewReportUseCase construye el caso de uso. title suele ser APP_NAME.
func NewReportUseCase(stock *StockAnalyticsUseCase, generator StockReportGenerator, title string) *ReportUseCase {
	return &ReportUseCase{stock: stock, generator: generator, title: title}
}

// StockReportPDF genera el PDF del reporte.
//
// Tres consultas en paralelo:
//  1. Summary   → totales y conteos
//  2. LowStock  → ítems bajo mínimo
//  3. Expiring  → ítems que vencen dentro de la ventana configurada
func (uc *ReportUseCase) StockReportPDF(ctx context.Context, actor access.Actor) ([]byte, error) {
	type summaryResult struct {
		dto *dto.StockSummaryDTO
		err error
	}
	type listResult struct {
		list *dto.StockAlertListResponse
		err  error
	}

	sumCh := make(chan summaryResult, 1)
	lowCh := make(chan listResult, 1)
	expCh := make(chan listResult, 1)

	go func() {
		s, err := uc.stock.Summary(ctx, actor)
		sumCh <- summaryResult{s, err}
	}()
	go func() {
		l, err := uc.stock.LowStock(ctx, actor)
		lowCh <- listResult{l, err}
	}()
	go func() {
		l, err := uc.stock.Expiring(ctx, actor, uc.stock.ExpiringDays())
		expCh <- listResult{l, err}
	}()

	sum, low, exp := <-sumCh, <-lowCh, <-expCh
	if sum.err != nil {
		return nil, sum.err
	}
	if low.err != nil {
		return nil, low.err
	}
	if exp.err != nil {
		return nil, exp.err
	}

	doc, err := uc.generator.GenerateStockReport(ctx, &dto.StockReportDTO{
		Title:        uc.title,
		GeneratedAt:  sum.dto.GeneratedAt,
		ExpiringDays: uc.stock.ExpiringDays(),
		Summary:      *sum.dto,
		LowStock:     low.list.Items,
		Expiring:     exp.list.Items,
	})
	if err != nil {
		return nil, fmt.Errorf("reporte de existencias: %w", err)
	}
	return doc, nil
}
