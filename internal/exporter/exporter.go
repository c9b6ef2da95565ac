// Package exporter turns a computed report summary into downloadable files:
// a CSV bundle for quick inspection and an XLSX workbook with one sheet per
// derived table.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/models"
)

type table struct {
	name    string
	headers []string
	records [][]string
}

func tables(summary models.Summary) []table {
	daily := table{
		name:    "Daily Orders",
		headers: []string{"order_date", "order_count", "revenue"},
	}
	for _, row := range summary.DailyOrders {
		daily.records = append(daily.records, []string{
			row.OrderDate,
			strconv.Itoa(row.OrderCount),
			formatFloat(row.Revenue),
		})
	}

	cities := table{
		name:    "Customers by City",
		headers: []string{"customer_city", "geolocation_lat", "geolocation_lng", "total_customer"},
	}
	for _, row := range summary.CityCustomers {
		cities.records = append(cities.records, []string{
			row.City,
			formatFloat(row.GeoLat),
			formatFloat(row.GeoLng),
			strconv.Itoa(row.TotalCustomer),
		})
	}

	categories := table{
		name:    "Category Sales",
		headers: []string{"product_category_name", "total_product", "total_order", "total_price", "total_freight"},
	}
	for _, row := range summary.CategorySales {
		categories.records = append(categories.records, []string{
			row.Category,
			strconv.Itoa(row.TotalProduct),
			strconv.Itoa(row.TotalOrder),
			formatFloat(row.TotalPrice),
			formatFloat(row.TotalFreight),
		})
	}

	rfm := table{
		name:    "RFM",
		headers: []string{"customer_unique_id", "customer_label_id", "recency", "frequency", "monetary"},
	}
	for _, row := range summary.RFM {
		rfm.records = append(rfm.records, []string{
			row.CustomerUniqueID,
			row.LabelID,
			strconv.Itoa(row.Recency),
			strconv.Itoa(row.Frequency),
			formatFloat(row.Monetary),
		})
	}

	return []table{daily, cities, categories, rfm}
}

// WriteCSV writes all four tables into one stream, each prefixed with a
// title row and separated by a blank line. A UTF-8 BOM keeps Excel happy
// with accented city names.
func WriteCSV(w io.Writer, summary models.Summary) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	for i, t := range tables(summary) {
		if i > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return fmt.Errorf("write separator: %w", err)
			}
		}
		if err := writer.Write([]string{"# " + t.name}); err != nil {
			return fmt.Errorf("write title: %w", err)
		}
		if err := writer.Write(t.headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
		for j, record := range t.records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("write %s record %d: %w", t.name, j, err)
			}
		}
	}

	return writer.Error()
}

// WriteWorkbook writes an XLSX workbook with one sheet per derived table.
func WriteWorkbook(w io.Writer, summary models.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables(summary) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(t.name); err != nil {
				return fmt.Errorf("create sheet %s: %w", t.name, err)
			}
		}

		header := make([]any, len(t.headers))
		for j, h := range t.headers {
			header[j] = h
		}
		if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
			return fmt.Errorf("write %s header: %w", t.name, err)
		}

		for j, record := range t.records {
			row := make([]any, len(record))
			for k, v := range record {
				row[k] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetSheetRow(t.name, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", t.name, j, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
