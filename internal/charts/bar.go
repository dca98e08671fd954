package charts

import (
	"fmt"
	"html/template"
	"strings"
)

// RankedBars renders a horizontal bar chart, one row per label, in input order.
// Negative values are drawn as zero-length bars.
func RankedBars(width int, values []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("charts: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("charts: labels length must match values")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	labelWidth := opts.LabelWidth
	if labelWidth <= 0 {
		labelWidth = 200
	}
	color := fallback(opts.Color, "#0ea5e9")
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	const rowHeight = 22.0
	chartTop := padding
	chartHeight := rowHeight * float64(len(values))
	height := int(chartTop + chartHeight + padding + 14)
	left := padding + labelWidth
	chartWidth := float64(width) - left - padding
	if chartWidth <= 0 {
		return "", fmt.Errorf("charts: viewport too small")
	}

	_, maxVal := bounds(values)
	if maxVal <= 0 {
		maxVal = 1
	}
	scale := chartWidth / maxVal

	titleID := makeID(opts.Title, "bar-title")
	descID := makeID(opts.Title, "bar-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Bar chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Ranked values")))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		x := left + ratio*chartWidth
		fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", x, chartTop, x, chartTop+chartHeight, gridColor)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x, chartTop+chartHeight+14, axisColor, template.HTMLEscapeString(formatTick(maxVal*ratio)))
	}

	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"1\"></line>", left, chartTop, left, chartTop+chartHeight, axisColor)

	for i, label := range labels {
		y := chartTop + float64(i)*rowHeight
		w := values[i] * scale
		if w < 0 {
			w = 0
		}
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", left-6, y+rowHeight/2+4, axisColor, template.HTMLEscapeString(truncate(label, 32)))
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></rect>", left, y+3, w, rowHeight-6, color, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
