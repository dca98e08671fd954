package salesloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	assert.Equal(t, 0, stats.RecordCount)
	assert.True(t, stats.QuantitySum.IsZero())
	assert.Equal(t, 0, stats.DistinctProductCount)
	assert.Equal(t, 0, stats.DistinctLocationCount)
}

func TestSummarizeCountsDistinctNamesAndLocations(t *testing.T) {
	rows := []AggregatedRow{
		{Period: "2024-02", LocationCode: "L1", ProductCode: "C1", ProductName: "Cola", TotalQuantity: dec("10.5")},
		{Period: "2024-02", LocationCode: "L2", ProductCode: "C2", ProductName: "Cola", TotalQuantity: dec("4")},
		{Period: "2024-01", LocationCode: "L1", ProductCode: "C3", ProductName: "Tea", TotalQuantity: dec("0.25")},
	}
	stats := Summarize(rows)
	assert.Equal(t, 3, stats.RecordCount)
	assert.Equal(t, "14.75", stats.QuantitySum.String())
	// distinct by product_name, not code
	assert.Equal(t, 2, stats.DistinctProductCount)
	assert.Equal(t, 2, stats.DistinctLocationCount)
}

func TestTotalsByLocation(t *testing.T) {
	rows := []AggregatedRow{
		{LocationCode: "L2", TotalQuantity: dec("3")},
		{LocationCode: "L1", TotalQuantity: dec("5")},
		{LocationCode: "L2", TotalQuantity: dec("2")},
		{LocationCode: "L3", TotalQuantity: dec("1")},
	}
	totals := TotalsByLocation(rows)
	assert.Len(t, totals, 3)
	// L1 and L2 tie at 5; code breaks the tie.
	assert.Equal(t, "L1", totals[0].LocationCode)
	assert.Equal(t, "L2", totals[1].LocationCode)
	assert.Equal(t, "5", totals[1].Quantity.String())
	assert.Equal(t, "L3", totals[2].LocationCode)
	assert.Empty(t, TotalsByLocation(nil))
}
