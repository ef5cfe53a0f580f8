package view

import (
	"math"
	"strconv"
)

// ChartKind selects how a series is drawn.
type ChartKind string

const (
	LineChart ChartKind = "line"
	BarChart  ChartKind = "bar"
	PieChart  ChartKind = "pie"
)

// SeriesHint tells ToSeries which fields carry the label and the value.
// Keys are tried in order; the first usable one wins.
type SeriesHint struct {
	Name      string
	LabelKeys []string
	ValueKeys []string
	Limit     int // keep only the first Limit rows when > 0
}

// Series is a chart-ready sequence of (label, value) points.
type Series struct {
	Name   string    `json:"name"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Labels) }

// ToSeries maps each row to one point, keeping row order. A row without
// a usable value gets 0; values are never NaN or infinite.
func ToSeries[R Record](rows []R, hint SeriesHint) Series {
	if hint.Limit > 0 && len(rows) > hint.Limit {
		rows = rows[:hint.Limit]
	}
	s := Series{
		Name:   hint.Name,
		Labels: make([]string, 0, len(rows)),
		Values: make([]float64, 0, len(rows)),
	}
	for _, r := range rows {
		s.Labels = append(s.Labels, firstLabel(r, hint.LabelKeys))
		s.Values = append(s.Values, firstValue(r, hint.ValueKeys))
	}
	return s
}

func firstLabel(r Record, keys []string) string {
	for _, k := range keys {
		if l := Format(r.Field(k)); l != "" {
			return l
		}
	}
	return ""
}

func firstValue(r Record, keys []string) float64 {
	for _, k := range keys {
		v := r.Field(k)
		if !truthy(v) {
			continue
		}
		if f, ok := ToFloat(v); ok {
			return f
		}
	}
	return 0
}

// Histogram counts values into bins equal-width buckets over [0, upper].
// Values at or above upper land in the last bucket and negative values in
// the first. label formats the bounds of bucket i.
func Histogram(name string, values []float64, bins int, upper float64, label func(lo, hi float64) string) Series {
	if bins <= 0 {
		bins = 10
	}
	counts := make([]float64, bins)
	labels := make([]string, bins)
	width := upper / float64(bins)
	for i := range labels {
		labels[i] = label(float64(i)*width, float64(i+1)*width)
	}
	if upper > 0 {
		for _, v := range values {
			if math.IsNaN(v) {
				continue
			}
			b := int(math.Floor(v / upper * float64(bins)))
			counts[min(max(b, 0), bins-1)]++
		}
	}
	return Series{Name: name, Labels: labels, Values: counts}
}

// RangeLabel formats histogram bounds with the given number of decimals,
// trimming trailing zeros when decimals is negative.
func RangeLabel(decimals int) func(lo, hi float64) string {
	return func(lo, hi float64) string {
		return strconv.FormatFloat(lo, 'f', decimals, 64) + "-" + strconv.FormatFloat(hi, 'f', decimals, 64)
	}
}
