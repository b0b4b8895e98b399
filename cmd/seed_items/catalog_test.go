package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParseCatalog_UTF8ConComas(t *testing.T) {
	raw := []byte("sku,name,category,initial_stock,minimum_stock,unit_cost,expiry_date\n" +
		"PAR500,Paracetamol 500mg,Medication,100,20,120.50,2027-01-31\n" +
		",fila sin sku,other,1,0,0,\n" +
		"GASA,Gasa estéril,supplies,,5,,\n")

	rows, err := parseCatalog(raw)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "PAR500", rows[0].SKU)
	assert.Equal(t, "medication", rows[0].Category)
	assert.Equal(t, int64(100), rows[0].InitialStock)
	assert.True(t, rows[0].UnitCost.Equal(decimal.RequireFromString("120.50")))
	require.NotNil(t, rows[0].ExpiryDate)
	assert.Equal(t, 2027, rows[0].ExpiryDate.Year())

	assert.Equal(t, "Gasa estéril", rows[1].Name)
	assert.Zero(t, rows[1].InitialStock)
	assert.Nil(t, rows[1].ExpiryDate)
}

func TestParseCatalog_Latin1PuntoYComa(t *testing.T) {
	utf := "sku;name;category;unit_price\nALC70;Alcohol antiséptico 70%;supplies;4500,75\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(utf)
	require.NoError(t, err)

	rows, err := parseCatalog([]byte(latin1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alcohol antiséptico 70%", rows[0].Name)
	assert.True(t, rows[0].UnitPrice.Equal(decimal.RequireFromString("4500.75")))
}

func TestParseCatalog_Errores(t *testing.T) {
	_, err := parseCatalog([]byte("sku,name\nA,B\n"))
	assert.ErrorContains(t, err, "category")

	_, err = parseCatalog([]byte("sku,name,category,initial_stock\nA,B,other,muchos\n"))
	assert.ErrorContains(t, err, "línea 2")
}
