package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SampleRow is one fact row as stored; every column is text.
type SampleRow struct {
	CreatedDate  string
	ProductName  string
	LocationCode string
	Quantity     string
}

// DayCount is the number of sampled rows created on one day.
type DayCount struct {
	Day   time.Time
	Count int
}

// ProductCount is the number of sampled rows for one product name.
type ProductCount struct {
	Name  string
	Count int
}

// Overview is the dashboard model derived from a sample.
type Overview struct {
	SampleRows        int
	TotalQuantity     decimal.Decimal
	InvalidQuantities int
	DistinctProducts  int
	DistinctLocations int
	Daily             []DayCount
	TopProducts       []ProductCount
}

const topProducts = 10

// dateLayouts are tried in order against the created_date text.
var dateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006", "02-01-2006"}

// Summarize derives the overview. Rows with unparseable dates are left out of
// the daily series; unparseable quantities are counted and skipped.
func Summarize(rows []SampleRow) Overview {
	ov := Overview{SampleRows: len(rows), TotalQuantity: decimal.Zero}
	days := make(map[time.Time]int)
	products := make(map[string]int)
	locations := make(map[string]struct{})

	for _, row := range rows {
		if day, ok := parseDay(row.CreatedDate); ok {
			days[day]++
		}
		if name := strings.TrimSpace(row.ProductName); name != "" {
			products[name]++
		}
		if loc := strings.TrimSpace(row.LocationCode); loc != "" {
			locations[loc] = struct{}{}
		}
		if q := strings.TrimSpace(row.Quantity); q != "" {
			d, err := decimal.NewFromString(q)
			if err != nil {
				ov.InvalidQuantities++
				continue
			}
			ov.TotalQuantity = ov.TotalQuantity.Add(d)
		}
	}

	ov.DistinctProducts = len(products)
	ov.DistinctLocations = len(locations)

	ov.Daily = make([]DayCount, 0, len(days))
	for day, n := range days {
		ov.Daily = append(ov.Daily, DayCount{Day: day, Count: n})
	}
	sort.Slice(ov.Daily, func(i, j int) bool { return ov.Daily[i].Day.Before(ov.Daily[j].Day) })

	ov.TopProducts = make([]ProductCount, 0, len(products))
	for name, n := range products {
		ov.TopProducts = append(ov.TopProducts, ProductCount{Name: name, Count: n})
	}
	sort.Slice(ov.TopProducts, func(i, j int) bool {
		if ov.TopProducts[i].Count != ov.TopProducts[j].Count {
			return ov.TopProducts[i].Count > ov.TopProducts[j].Count
		}
		return ov.TopProducts[i].Name < ov.TopProducts[j].Name
	})
	if len(ov.TopProducts) > topProducts {
		ov.TopProducts = ov.TopProducts[:topProducts]
	}
	return ov
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		// tolerate a trailing time part
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
