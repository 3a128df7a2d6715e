package eval

import (
	"math"
	"strings"
	"testing"

	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRegressionMetrics(t *testing.T) {
	r := NewRegression("quality")
	labels := []float64{5, 6, 7, 6}
	preds := []float64{5.5, 6, 6, 6.5}
	for i := range labels {
		r.Add([]float64{labels[i]}, []float64{preds[i]})
	}

	assert.Equal(t, r.Count(), 4)
	// errors: -0.5, 0, 1, -0.5
	approx(t, r.MSE(0), (0.25+0+1+0.25)/4)
	approx(t, r.MAE(0), (0.5+0+1+0.5)/4)
	approx(t, r.RMSE(0), math.Sqrt(1.5/4))
	// label mean 6, total sum of squares 2
	approx(t, r.RSE(0), 1.5/2)
	approx(t, r.RSquared(0), 1-1.5/2)
}

func TestRegressionMSEExact(t *testing.T) {
	r := NewRegression("quality")
	r.Add([]float64{5}, []float64{6})
	r.Add([]float64{7}, []float64{6})

	assert.Equal(t, r.MSE(0), 1.0)
	assert.Equal(t, r.RMSE(0), 1.0)
}

func TestRegressionPerfectFit(t *testing.T) {
	r := NewRegression("quality")
	for _, v := range []float64{3, 5, 8, 9} {
		r.Add([]float64{v}, []float64{v})
	}
	approx(t, r.MSE(0), 0)
	approx(t, r.Correlation(0), 1)
	approx(t, r.RSquared(0), 1)
}

func TestErrorByLabel(t *testing.T) {
	r := NewRegression("quality")
	r.Add([]float64{5}, []float64{5.5})
	r.Add([]float64{5}, []float64{4.5})
	r.Add([]float64{7}, []float64{5})
	r.Add([]float64{3}, []float64{4})

	groups := r.ErrorByLabel(0)
	assert.DeepEqual(t, groups, []LabelError{
		{Label: 3, Count: 1, MAE: 1},
		{Label: 5, Count: 2, MAE: 0.5},
		{Label: 7, Count: 1, MAE: 2},
	})
}

func TestRegressionEmpty(t *testing.T) {
	r := NewRegression("quality")
	assert.Equal(t, r.Count(), 0)
	assert.Equal(t, r.MSE(0), 0.0)
	assert.Equal(t, r.MAE(0), 0.0)
}

func TestRegressionString(t *testing.T) {
	r := NewRegression("quality")
	r.Add([]float64{5}, []float64{5.25})
	r.Add([]float64{6}, []float64{5.75})

	s := r.String()
	assert.Assert(t, is.Contains(s, "Column"))
	assert.Assert(t, is.Contains(s, "R^2"))
	assert.Assert(t, strings.HasPrefix(strings.Split(s, "\n")[1], "quality"))
	assert.Assert(t, is.Contains(s, "MAE per label of quality (2 examples)"))
}
