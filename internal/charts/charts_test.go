package charts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{100, 200, 150}, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, LineOpts{
		Title:       "Daily transactions",
		Description: "Rows per day",
		ShowDots:    true,
	})
	require.NoError(t, err)
	output := string(html)
	assert.True(t, strings.HasPrefix(output, "<svg"))
	assert.Contains(t, output, "<path")
	assert.Contains(t, output, "<circle")
	assert.Contains(t, output, "aria-labelledby=\"daily-transactions-line-title")
}

func TestLineThinsLabels(t *testing.T) {
	series := make([]float64, 30)
	labels := make([]string, 30)
	for i := range series {
		series[i] = float64(i)
		labels[i] = "d" + string(rune('A'+i%26))
	}
	html, err := Line(0, 0, series, labels, LineOpts{MaxLabels: 5})
	require.NoError(t, err)
	// 5 strided labels plus the last one, in addition to the tick texts.
	texts := strings.Count(string(html), "text-anchor=\"middle\"")
	assert.LessOrEqual(t, texts, 7)
}

func TestLineRejectsMismatchedLabels(t *testing.T) {
	_, err := Line(400, 200, []float64{1, 2}, []string{"a"}, LineOpts{})
	assert.Error(t, err)

	_, err = Line(400, 200, nil, nil, LineOpts{})
	assert.Error(t, err)
}

func TestRankedBarsProducesSVG(t *testing.T) {
	labels, values := Split([]Point{{Label: "Widget <A>", Value: 12}, {Label: "Gadget", Value: 4}})
	html, err := RankedBars(600, values, labels, BarOpts{Title: "Top products"})
	require.NoError(t, err)
	output := string(html)
	assert.True(t, strings.HasPrefix(output, "<svg"))
	assert.Equal(t, 2, strings.Count(output, "<rect"))
	assert.Contains(t, output, "Widget &lt;A&gt;")
	assert.NotContains(t, output, "Widget <A>")
}

func TestRankedBarsValidation(t *testing.T) {
	_, err := RankedBars(600, []float64{1}, []string{"a", "b"}, BarOpts{})
	assert.Error(t, err)

	_, err = RankedBars(100, []float64{1}, []string{"a"}, BarOpts{LabelWidth: 200})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
