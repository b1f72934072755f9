package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRows_CSVHeaderDetection(t *testing.T) {
	path := writeTempCSV(t, "Item Description,Pack Size,Case Price\nKosher Salt,4/3 LB,$18.00\nOlive Oil,6/1 GAL,142.50\n")

	rows, err := loadRows(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Kosher Salt", rows[0].ItemText)
	assert.Equal(t, "4/3 LB", rows[0].PackText)
	assert.Equal(t, "$18.00", rows[0].Price)
	// Line numbers are 1-based and count the header.
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 3, rows[1].Line)
}

func TestLoadRows_CSVMissingColumns(t *testing.T) {
	path := writeTempCSV(t, "SKU,Vendor\n123,Acme\n")

	_, err := loadRows(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not locate")
}

func TestLoadRows_ExplicitColumns(t *testing.T) {
	importItemCol, importPackCol, importPriceCol = 1, 2, 0
	t.Cleanup(func() { importItemCol, importPackCol, importPriceCol = -1, -1, -1 })

	// No header row when columns are given explicitly.
	path := writeTempCSV(t, "9.99,Butter,36/1 LB\n")

	rows, err := loadRows(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Butter", rows[0].ItemText)
	assert.Equal(t, "36/1 LB", rows[0].PackText)
	assert.Equal(t, "9.99", rows[0].Price)
}

func TestLoadRows_SkipRows(t *testing.T) {
	importSkipRows = 2
	t.Cleanup(func() { importSkipRows = 0 })

	path := writeTempCSV(t, "Acme Foods Weekly Sheet,,\nEffective 2026-08-24,,\nItem,Pack,Price\nKosher Salt,4/3 LB,18.00\n")

	rows, err := loadRows(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kosher Salt", rows[0].ItemText)
	assert.Equal(t, 4, rows[0].Line)
}

func TestLoadRows_EmptySheet(t *testing.T) {
	path := writeTempCSV(t, "")

	_, err := loadRows(context.Background(), path)
	require.Error(t, err)
}

func TestLoadRows_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "Item,Pack,Price\n")

	_, err := loadRows(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestMapRecords_RaggedRows(t *testing.T) {
	records := [][]string{
		{"Item", "Pack", "Price"},
		{"Kosher Salt", "4/3 LB"},
	}

	rows, err := mapRecords(records)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kosher Salt", rows[0].ItemText)
	assert.Equal(t, "", rows[0].Price)
}
