package inventory

import "github.com/shopspring/decimal"

// costScale decimales con los que se guarda unit_cost (NUMERIC(18,4)).
const costScale = 4

// WeightedUnitCost costo promedio ponderado tras una entrada IN:
//
//	(stock * costo + cantidad * costoEntrada) / (stock + cantidad)
//
// Con saldo resultante <= 0 devuelve cero. Un stock negativo no debería existir; se trata como cero.
func WeightedUnitCost(currentStock int64, currentCost decimal.Decimal, inQty int64, inCost decimal.Decimal) decimal.Decimal {
	if currentStock < 0 {
		currentStock = 0
	}
	total := currentStock + inQty
	if total <= 0 {
		return decimal.Zero
	}
	held := decimal.NewFromInt(currentStock).Mul(currentCost)
	incoming := decimal.NewFromInt(inQty).Mul(inCost)
	return held.Add(incoming).Div(decimal.NewFromInt(total)).Round(costScale)
}
