package preprocess

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HistogramBuckets is the number of buckets computed per column.
const HistogramBuckets = 50

// Histogram holds Counts[i] values in [Edges[i], Edges[i+1]).
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// ColumnAnalysis summarizes a single column.
type ColumnAnalysis struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Count     int       `json:"count"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"stdDev"`
	Histogram Histogram `json:"histogram"`
}

// Analysis summarizes every column of a record set.
type Analysis struct {
	Columns []ColumnAnalysis `json:"columns"`
}

// Analyze computes per-column statistics of records. StdDev is the sample
// standard deviation.
func Analyze(schema Schema, records [][]float64, buckets int) *Analysis {
	a := &Analysis{Columns: make([]ColumnAnalysis, len(schema))}
	values := make([]float64, len(records))
	for c, col := range schema {
		for i, rec := range records {
			values[i] = rec[c]
		}
		ca := ColumnAnalysis{Name: col.Name, Kind: col.Kind, Count: len(values)}
		if len(values) > 0 {
			ca.Min = floats.Min(values)
			ca.Max = floats.Max(values)
			ca.Mean, ca.StdDev = stat.MeanStdDev(values, nil)
			if len(values) < 2 {
				ca.StdDev = 0
			}
			ca.Histogram = histogram(values, ca.Min, ca.Max, buckets)
		}
		a.Columns[c] = ca
	}
	return a
}

func histogram(values []float64, min, max float64, buckets int) Histogram {
	if buckets < 1 || min == max {
		buckets = 1
	}
	edges := make([]float64, buckets+1)
	if min == max {
		edges[0], edges[1] = min, min+1
	} else {
		floats.Span(edges, min, max)
	}
	// the top edge is exclusive and Span may round it below max
	edges[buckets] = math.Nextafter(math.Max(edges[buckets], max), math.Inf(1))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Histogram{Edges: edges, Counts: stat.Histogram(nil, edges, sorted, nil)}
}

// Column returns the analysis of the named column.
func (a *Analysis) Column(name string) (ColumnAnalysis, bool) {
	for _, c := range a.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnAnalysis{}, false
}

func (a *Analysis) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-4s%-24s%-10s%-8s%-14s%-14s%-14s%-14s\n",
		"idx", "name", "type", "count", "min", "max", "mean", "stdev")
	for i, c := range a.Columns {
		fmt.Fprintf(&sb, "%-4d%-24s%-10s%-8d%-14.6g%-14.6g%-14.6g%-14.6g\n",
			i, c.Name, c.Kind, c.Count, c.Min, c.Max, c.Mean, c.StdDev)
	}
	return sb.String()
}
