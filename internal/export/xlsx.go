// Package export renders settlement data as an XLSX report.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rozliczenia/internal/core"
)

// WriteXLSX writes settlement rows for the given period to w. Month 0
// covers the whole year. Each row is one settled line item with the order
// number and client name resolved.
func WriteXLSX(w io.Writer, snap core.Snapshot, p core.Period) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Rozliczenia"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Okres", "Data", "Klient", "Numer zamówienia", "Typ prac", "Godziny", "Stawka", "Wartość"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	row := 2
	var totalHours, totalValue float64
	for _, sett := range snap.Settlements {
		if !p.Contains(sett.Year, sett.Month) {
			continue
		}
		for _, item := range sett.Items {
			var orderNumber, clientName string
			if order, ok := snap.OrderByID(item.OrderID); ok {
				orderNumber = order.OrderNumber
				if client, ok := snap.ClientByID(order.ClientID); ok {
					clientName = client.Name
				}
			}

			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), sett.PeriodID())
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), sett.Date.String())
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), clientName)
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), orderNumber)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), string(item.ItemType))
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), item.Hours)
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), item.Rate)
			f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), item.Value())

			totalHours += item.Hours
			totalValue += item.Value()
			row++
		}
	}

	// Totals row below the data.
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Razem")
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), totalHours)
	f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), totalValue)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// FileName returns the download name for a period report.
func FileName(p core.Period) string {
	if p.WholeYear() {
		return fmt.Sprintf("Rozliczenia-%d.xlsx", p.Year)
	}
	return fmt.Sprintf("Rozliczenia-%d-%02d.xlsx", p.Year, p.Month)
}
