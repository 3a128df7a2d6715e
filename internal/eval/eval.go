// Package eval computes regression metrics over predicted and expected values.
package eval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Regression accumulates labels and predictions per output column.
type Regression struct {
	columns     []string
	labels      [][]float64
	predictions [][]float64
}

// NewRegression creates an evaluation for the named output columns.
func NewRegression(columns ...string) *Regression {
	return &Regression{
		columns:     columns,
		labels:      make([][]float64, len(columns)),
		predictions: make([][]float64, len(columns)),
	}
}

// Add records one example. Extra values beyond the configured columns are ignored.
func (r *Regression) Add(labels, predictions []float64) {
	for c := range r.columns {
		r.labels[c] = append(r.labels[c], labels[c])
		r.predictions[c] = append(r.predictions[c], predictions[c])
	}
}

// Columns returns the output column names.
func (r *Regression) Columns() []string {
	return r.columns
}

// Count returns the number of recorded examples.
func (r *Regression) Count() int {
	if len(r.labels) == 0 {
		return 0
	}
	return len(r.labels[0])
}

// MSE is the mean squared error of column c.
func (r *Regression) MSE(c int) float64 {
	n := r.Count()
	if n == 0 {
		return 0
	}
	var sum float64
	for i, y := range r.labels[c] {
		e := y - r.predictions[c][i]
		sum += e * e
	}
	return sum / float64(n)
}

// MAE is the mean absolute error of column c.
func (r *Regression) MAE(c int) float64 {
	n := r.Count()
	if n == 0 {
		return 0
	}
	return floats.Distance(r.labels[c], r.predictions[c], 1) / float64(n)
}

// RMSE is the root mean squared error of column c.
func (r *Regression) RMSE(c int) float64 {
	return math.Sqrt(r.MSE(c))
}

// RSE is the relative squared error: the residual sum of squares divided by
// the total sum of squares of the labels.
func (r *Regression) RSE(c int) float64 {
	labels := r.labels[c]
	if len(labels) == 0 {
		return 0
	}
	mean := stat.Mean(labels, nil)
	var res, tot float64
	for i, y := range labels {
		e := y - r.predictions[c][i]
		res += e * e
		tot += (y - mean) * (y - mean)
	}
	return res / tot
}

// Correlation is the Pearson correlation between labels and predictions.
func (r *Regression) Correlation(c int) float64 {
	return stat.Correlation(r.labels[c], r.predictions[c], nil)
}

// RSquared is the coefficient of determination of column c.
func (r *Regression) RSquared(c int) float64 {
	return stat.RSquaredFrom(r.predictions[c], r.labels[c], nil)
}

// LabelError is the error for all examples sharing one label value.
type LabelError struct {
	Label float64
	Count int
	MAE   float64
}

// ErrorByLabel groups the examples of column c by their label, rounded to the
// nearest integer, and returns the mean absolute error per group in
// ascending label order.
func (r *Regression) ErrorByLabel(c int) []LabelError {
	groups := make(map[float64]*LabelError)
	for i, y := range r.labels[c] {
		key := math.Round(y)
		g, ok := groups[key]
		if !ok {
			g = &LabelError{Label: key}
			groups[key] = g
		}
		g.Count++
		g.MAE += math.Abs(y - r.predictions[c][i])
	}
	out := make([]LabelError, 0, len(groups))
	for _, g := range groups {
		g.MAE /= float64(g.Count)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// String renders the metrics as a fixed width table followed by the error
// per label value of each column.
func (r *Regression) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-12s%-15s%-15s%-15s%-15s%-15s%-15s\n",
		"Column", "MSE", "MAE", "RMSE", "RSE", "PC", "R^2")
	for c, name := range r.columns {
		fmt.Fprintf(&sb, "%-12s%-15.5e%-15.5e%-15.5e%-15.5e%-15.5e%-15.5e\n",
			name, r.MSE(c), r.MAE(c), r.RMSE(c), r.RSE(c), r.Correlation(c), r.RSquared(c))
	}
	for c, name := range r.columns {
		fmt.Fprintf(&sb, "\nMAE per label of %s (%d examples)\n", name, r.Count())
		for _, g := range r.ErrorByLabel(c) {
			fmt.Fprintf(&sb, "  %4g  n=%-6d %.5f\n", g.Label, g.Count, g.MAE)
		}
	}
	return sb.String()
}
