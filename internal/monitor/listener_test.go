package monitor

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/FlavioCFOliveira/winequality/internal/activations"
	"github.com/FlavioCFOliveira/winequality/internal/eval"
	"github.com/FlavioCFOliveira/winequality/internal/layer"
	"github.com/FlavioCFOliveira/winequality/internal/loss"
	"github.com/FlavioCFOliveira/winequality/internal/net"
	"github.com/FlavioCFOliveira/winequality/internal/opt"
)

type memoryRouter struct {
	reports []Report
}

func (m *memoryRouter) Route(r Report) { m.reports = append(m.reports, r) }
func (m *memoryRouter) Close() error { return nil }

func TestStatsListenerRoutesTraining(t *testing.T) {
	router := &memoryRouter{}
	l := NewStatsListener(router, "session", "worker")
	l.Every = 2
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	rng := rand.New(rand.NewSource(1))
	n := net.New([]layer.Layer{layer.NewDense(1, 1, activations.Identity{}, rng)}, loss.MSE{}, &opt.SGD{LearningRate: 0.1})
	n.SetCallbacks(l)

	ds := &net.Dataset{}
	for i := 0; i < 4; i++ {
		ds.Samples = append(ds.Samples, []float64{float64(i)})
		ds.Labels = append(ds.Labels, []float64{float64(2 * i)})
	}
	n.Fit(ds, 1, 7)

	// iterations 2 and 4, then the epoch summary
	assert.Equal(t, len(router.reports), 3)
	assert.Equal(t, router.reports[0].Type, IterationReport)
	assert.Equal(t, router.reports[0].Iteration, 2)
	assert.Equal(t, router.reports[0].Epoch, 7)
	assert.Equal(t, router.reports[2].Type, EpochReport)
	assert.Equal(t, router.reports[2].Iteration, 4)
	assert.Equal(t, router.reports[2].Session, "session")
	assert.Equal(t, router.reports[2].Worker, "worker")
	assert.Assert(t, router.reports[2].Time.Equal(fixed))
}

func TestStatsListenerEvaluation(t *testing.T) {
	router := &memoryRouter{}
	l := NewStatsListener(router, "s", "w")

	l.Evaluation(ValidationReport, 10, eval.NewRegression("quality"))
	assert.Equal(t, len(router.reports), 0)

	ev := eval.NewRegression("quality")
	// constant predictions leave the correlation undefined
	ev.Add([]float64{5}, []float64{6})
	ev.Add([]float64{7}, []float64{6})
	l.Evaluation(ValidationReport, 10, ev)

	assert.Equal(t, len(router.reports), 1)
	rep := router.reports[0]
	assert.Equal(t, rep.Type, ValidationReport)
	assert.Equal(t, rep.Iteration, 10)
	assert.Equal(t, rep.Score, 1.0)
	assert.Equal(t, rep.Metrics["mae"], 1.0)
	_, hasPC := rep.Metrics["pc"]
	assert.Assert(t, !hasPC)
	for _, v := range rep.Metrics {
		assert.Assert(t, !math.IsNaN(v))
	}
}
