package db

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/vibe-storefront/internal/app/model"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Catalogue sheet columns. The first row is a header and is skipped.
const (
	colName = iota
	colDescription
	colPrice
	colStock
	colImage
)

// ReadProductsFromXLSX reads a product catalogue from the first sheet of an
// XLSX workbook. Rows without a name or with an invalid price or stock are
// skipped, as are repeated names.
func ReadProductsFromXLSX(filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	seen := make(map[string]bool)
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			continue
		}

		product, ok := productFromRow(row)
		if !ok || seen[product.Name] {
			skipped++
			continue
		}
		seen[product.Name] = true
		products = append(products, product)
	}

	logger.Info("Catalogue sheet read", map[string]interface{}{
		"sheet":    sheetName,
		"rows":     len(rows) - 1,
		"products": len(products),
		"skipped":  skipped,
	})
	return products, nil
}

func productFromRow(row []string) (model.Product, bool) {
	cell := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	name := cell(colName)
	if name == "" {
		return model.Product{}, false
	}

	price, err := decimal.NewFromString(cell(colPrice))
	if err != nil || price.IsNegative() {
		return model.Product{}, false
	}

	stock := 0
	if s := cell(colStock); s != "" {
		stock, err = strconv.Atoi(s)
		if err != nil || stock < 0 {
			return model.Product{}, false
		}
	}

	return model.Product{
		Name:          name,
		Description:   cell(colDescription),
		Price:         price.Round(2),
		StockQuantity: stock,
		ImageURL:      cell(colImage),
	}, true
}
