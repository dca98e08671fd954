package salesloc

import (
	"encoding/csv"
	"io"
)

// CSVFilename is the download name for report exports.
const CSVFilename = "sales_by_location.csv"

var csvHeader = []string{"period", "location_code", "product_code", "product_name", "total_quantity"}

// WriteCSV writes rows in display order with a header row.
func WriteCSV(w io.Writer, rows []AggregatedRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.Period,
			row.LocationCode,
			row.ProductCode,
			row.ProductName,
			row.TotalQuantity.String(),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
