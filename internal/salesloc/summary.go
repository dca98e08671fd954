package salesloc

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summarize is total: it accepts any row sequence, including an empty one.
func Summarize(rows []AggregatedRow) SummaryStats {
	stats := SummaryStats{RecordCount: len(rows), QuantitySum: decimal.Zero}
	products := make(map[string]struct{})
	locations := make(map[string]struct{})
	for _, row := range rows {
		stats.QuantitySum = stats.QuantitySum.Add(row.TotalQuantity)
		products[row.ProductName] = struct{}{}
		locations[row.LocationCode] = struct{}{}
	}
	stats.DistinctProductCount = len(products)
	stats.DistinctLocationCount = len(locations)
	return stats
}

// LocationTotal is the quantity summed over all rows for one location.
type LocationTotal struct {
	LocationCode string
	Quantity     decimal.Decimal
}

// TotalsByLocation feeds the location chart; largest first, ties by code.
func TotalsByLocation(rows []AggregatedRow) []LocationTotal {
	index := make(map[string]int)
	var out []LocationTotal
	for _, row := range rows {
		i, ok := index[row.LocationCode]
		if !ok {
			i = len(out)
			index[row.LocationCode] = i
			out = append(out, LocationTotal{LocationCode: row.LocationCode, Quantity: decimal.Zero})
		}
		out[i].Quantity = out[i].Quantity.Add(row.TotalQuantity)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if c := out[a].Quantity.Cmp(out[b].Quantity); c != 0 {
			return c > 0
		}
		return out[a].LocationCode < out[b].LocationCode
	})
	return out
}
