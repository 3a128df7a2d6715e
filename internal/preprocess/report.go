package preprocess

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Report file names written by WriteLog.
const (
	RawReportFile          = "DataAnalysisRaw.html"
	StandardizedReportFile = "DataAnalysisStandardized.html"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 2px 8px; text-align: right; }
td:nth-child(2), th { text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<tr><th>idx</th><th>name</th><th>type</th><th>count</th><th>min</th><th>max</th><th>mean</th><th>stdev</th></tr>
{{range $i, $c := .Columns}}<tr><td>{{$i}}</td><td>{{$c.Name}}</td><td>{{$c.Kind}}</td><td>{{$c.Count}}</td><td>{{printf "%.6g" $c.Min}}</td><td>{{printf "%.6g" $c.Max}}</td><td>{{printf "%.6g" $c.Mean}}</td><td>{{printf "%.6g" $c.StdDev}}</td></tr>
{{end}}</table>
{{range .Plots}}<div>{{.}}</div>
{{end}}</body>
</html>
`))

func (p *Standardizing) WriteLog(folder string) error {
	reports := []struct {
		file, title string
		a           *Analysis
	}{
		{RawReportFile, "Raw training data", p.raw},
		{StandardizedReportFile, "Standardized training data", p.standardized},
	}
	for _, r := range reports {
		if r.a == nil {
			continue
		}
		if err := WriteReport(filepath.Join(folder, r.file), r.title, r.a); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport renders a as an HTML page with a statistics table and one
// histogram per column.
func WriteReport(path, title string, a *Analysis) error {
	data := struct {
		Title   string
		Columns []ColumnAnalysis
		Plots   []template.HTML
	}{Title: title, Columns: a.Columns}
	for _, c := range a.Columns {
		svg, err := histogramSVG(c)
		if err != nil {
			return errors.Wrapf(err, "plot %s", c.Name)
		}
		data.Plots = append(data.Plots, svg)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return errors.Wrap(err, "render report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create report folder")
	}
	return errors.Wrap(os.WriteFile(path, buf.Bytes(), 0o644), "write report")
}

func histogramSVG(c ColumnAnalysis) (template.HTML, error) {
	p := plot.New()
	p.Title.Text = c.Name
	p.Y.Label.Text = "count"
	p.Add(plotter.NewGrid())

	h := &plotter.Histogram{FillColor: plotutil.Color(0), LineStyle: plotter.DefaultLineStyle}
	edges := c.Histogram.Edges
	for i, n := range c.Histogram.Counts {
		h.Bins = append(h.Bins, plotter.HistogramBin{Min: edges[i], Max: edges[i+1], Weight: n})
	}
	if len(h.Bins) > 0 {
		h.Width = h.Bins[0].Max - h.Bins[0].Min
		p.Add(h)
	}

	w, err := p.WriterTo(5*vg.Inch, 3*vg.Inch, "svg")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return "", err
	}
	// drop the XML prolog so the svg can be inlined
	out := buf.Bytes()
	if i := bytes.Index(out, []byte("<svg")); i > 0 {
		out = out[i:]
	}
	return template.HTML(out), nil
}
