package rawmaterial

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"supplychain-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Replenishment"

var reportHeader = []any{"Material", "Unit", "Stock", "Reserved", "Available", "Stock min", "Shortfall", "Unit price", "Supplier", "Supplier email"}

// WriteReplenishmentReport renders materials as an XLSX workbook.
func WriteReplenishmentReport(w io.Writer, materials []models.RawMaterial) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(reportSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, m := range materials {
		supplier, email := "", ""
		if m.Supplier != nil {
			supplier, email = m.Supplier.Name, m.Supplier.Email
		}
		shortfall := m.StockMin - m.Available()
		if shortfall < 0 {
			shortfall = 0
		}
		price, _ := m.UnitPrice.Float64()

		row := []any{m.Name, m.Unit, m.Stock, m.ReservedStock, m.Available(), m.StockMin, shortfall, price, supplier, email}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(reportSheet, "A", "A", 28); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

type StockCount struct {
	Name     string
	Quantity int
}

// ParseStockCount reads a count sheet: material name in column A, counted
// quantity in column B. A header row is detected and skipped.
func ParseStockCount(r io.Reader) ([]StockCount, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var out []StockCount
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		name := strings.TrimSpace(row[0])
		if i == 0 && isHeader(name) {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: missing quantity for %s", i+1, name)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid quantity %q for %s", i+1, row[1], name)
		}
		out = append(out, StockCount{Name: name, Quantity: qty})
	}
	return out, nil
}

func isHeader(cell string) bool {
	c := strings.ToUpper(cell)
	return strings.Contains(c, "MATERIAL") || strings.Contains(c, "NAME")
}
