package monitor

import (
	"bytes"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ScorePlot renders the iteration scores and the validation errors of
// reports against the iteration count as an SVG of width x height inches.
func ScorePlot(title string, reports []Report, width, height float64) ([]byte, error) {
	var scores, validation plotter.XYs
	for _, r := range reports {
		if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
			continue
		}
		pt := plotter.XY{X: float64(r.Iteration), Y: r.Score}
		switch r.Type {
		case IterationReport:
			scores = append(scores, pt)
		case ValidationReport:
			validation = append(validation, pt)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "score"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	for i, series := range []struct {
		name string
		xys  plotter.XYs
	}{{"training score", scores}, {"validation mse", validation}} {
		if len(series.xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(series.xys)
		if err != nil {
			return nil, err
		}
		line.Width = vg.Points(1.5)
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	w, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, "svg")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
