package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/JonMunkholm/insights/internal/view"
)

// ErrSurfaceDetached means the chart has nothing drawn yet. Callers treat it
// as "no export" rather than as a failure.
var ErrSurfaceDetached = errors.New("chart surface not attached")

const (
	defaultWidth  = 800
	defaultHeight = 400
	maxLabelLen   = 14
	maxLineTicks  = 12
)

// ImageOptions size and title the rendered chart.
type ImageOptions struct {
	Title  string
	Width  int
	Height int
}

func (o ImageOptions) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// WritePNG renders s as a chart of the given kind and writes it as PNG.
// A line chart with fewer than two points is drawn as bars. A series with no
// points, or a pie with nothing positive to show, yields ErrSurfaceDetached.
func WritePNG(w io.Writer, kind view.ChartKind, s view.Series, opts ImageOptions) error {
	if s.Len() == 0 {
		return ErrSurfaceDetached
	}

	var err error
	switch {
	case kind == view.PieChart:
		err = renderPie(w, s, opts)
	case kind == view.LineChart && s.Len() >= 2:
		err = renderLine(w, s, opts)
	default:
		err = renderBar(w, s, opts)
	}
	if err != nil && !errors.Is(err, ErrSurfaceDetached) {
		return fmt.Errorf("render chart %q: %w", s.Name, err)
	}
	return err
}

func renderBar(w io.Writer, s view.Series, opts ImageOptions) error {
	width, height := opts.size()

	bars := make([]chart.Value, s.Len())
	for i := range bars {
		bars[i] = chart.Value{Label: shorten(s.Labels[i]), Value: s.Values[i]}
	}

	// Leave room for axes and keep bars readable at any count.
	barWidth := max(4, (width-120)*2/(3*len(bars)))
	bc := chart.BarChart{
		Title:      title(s, opts),
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: max(2, barWidth/2),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		YAxis:      chart.YAxis{Range: valueRange(s.Values)},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

func renderLine(w io.Writer, s view.Series, opts ImageOptions) error {
	width, height := opts.size()

	xs := make([]float64, s.Len())
	for i := range xs {
		xs[i] = float64(i)
	}

	step := max(1, int(math.Ceil(float64(s.Len())/maxLineTicks)))
	var ticks []chart.Tick
	for i := 0; i < s.Len(); i += step {
		ticks = append(ticks, chart.Tick{Value: xs[i], Label: shorten(s.Labels[i])})
	}

	ch := chart.Chart{
		Title:      title(s, opts),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 10}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: xs[len(xs)-1]},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{Range: valueRange(s.Values)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: s.Name,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
					FillColor:   chart.ColorBlue.WithAlpha(48),
				},
				XValues: xs,
				YValues: s.Values,
			},
		},
	}
	return ch.Render(chart.PNG, w)
}

func renderPie(w io.Writer, s view.Series, opts ImageOptions) error {
	width, height := opts.size()

	var values []chart.Value
	for i, v := range s.Values {
		if v > 0 {
			values = append(values, chart.Value{Label: shorten(s.Labels[i]), Value: v})
		}
	}
	if len(values) == 0 {
		return ErrSurfaceDetached
	}

	pc := chart.PieChart{
		Title:  title(s, opts),
		Width:  width,
		Height: height,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}

// valueRange spans zero and every value, with a non-empty extent.
func valueRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi * 1.05}
}

func title(s view.Series, opts ImageOptions) string {
	if opts.Title != "" {
		return opts.Title
	}
	return s.Name
}

func shorten(label string) string {
	r := []rune(label)
	if len(r) <= maxLabelLen {
		return label
	}
	return string(r[:maxLabelLen-1]) + "…"
}
