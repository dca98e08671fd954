package charts

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
	// MaxLabels thins x-axis labels on long series; zero keeps all of them.
	MaxLabels int
}

// BarOpts customises the horizontal ranking chart.
type BarOpts struct {
	Title       string
	Description string
	Color       string
	AxisColor   string
	GridColor   string
	LabelWidth  float64
	Padding     float64
	TickCount   int
}

// Point is a single labelled value.
type Point struct {
	Label string
	Value float64
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 5
)

// Split separates points into parallel label/value slices.
func Split(points []Point) ([]string, []float64) {
	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Label
		values[i] = p.Value
	}
	return labels, values
}
