package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/medstock-ledger/internal/application/dto"
)

// columnas reconocidas del CSV de catálogo; sku, name y category son obligatorias.
var requiredColumns = []string{"sku", "name", "category"}

// decodeReader devuelve un lector UTF-8. Los exportes de hojas de cálculo suelen venir en ISO-8859-1:
// si el contenido no es UTF-8 válido se transcodifica.
func decodeReader(raw []byte) io.Reader {
	if utf8.Valid(raw) {
		return strings.NewReader(strings.TrimPrefix(string(raw), "\ufeff"))
	}
	return transform.NewReader(strings.NewReader(string(raw)), charmap.ISO8859_1.NewDecoder())
}

// parseCatalog lee el CSV (separador "," o ";") y arma un CreateItemRequest por fila.
func parseCatalog(raw []byte) ([]dto.CreateItemRequest, error) {
	r := csv.NewReader(decodeReader(raw))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	if firstLine := strings.SplitN(string(raw), "\n", 2)[0]; strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		r.Comma = ';'
	}

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	var out []dto.CreateItemRequest
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get("sku") == "" {
			continue
		}
		req := dto.CreateItemRequest{
			SKU:         get("sku"),
			Barcode:     get("barcode"),
			Name:        get("name"),
			Description: get("description"),
			Category:    strings.ToLower(get("category")),
			UnitMeasure: get("unit_measure"),
			BatchNumber: get("batch_number"),
			Location:    get("location"),
		}
		if req.InitialStock, err = parseInt(get("initial_stock")); err != nil {
			return nil, fmt.Errorf("línea %d: initial_stock: %w", line, err)
		}
		if req.MinimumStock, err = parseInt(get("minimum_stock")); err != nil {
			return nil, fmt.Errorf("línea %d: minimum_stock: %w", line, err)
		}
		if req.MaximumStock, err = parseInt(get("maximum_stock")); err != nil {
			return nil, fmt.Errorf("línea %d: maximum_stock: %w", line, err)
		}
		if req.UnitCost, err = parseMoney(get("unit_cost")); err != nil {
			return nil, fmt.Errorf("línea %d: unit_cost: %w", line, err)
		}
		if req.UnitPrice, err = parseMoney(get("unit_price")); err != nil {
			return nil, fmt.Errorf("línea %d: unit_price: %w", line, err)
		}
		if s := get("expiry_date"); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				return nil, fmt.Errorf("línea %d: expiry_date: %w", line, err)
			}
			req.ExpiryDate = &t
		}
		out = append(out, req)
	}
	return out, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseMoney acepta "1234.5" y "1234,5".
func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
