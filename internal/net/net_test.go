package net

import (
	"math"
	"math/rand"
	"testing"

	"github.com/FlavioCFOliveira/winequality/internal/activations"
	"github.com/FlavioCFOliveira/winequality/internal/layer"
	"github.com/FlavioCFOliveira/winequality/internal/loss"
	"github.com/FlavioCFOliveira/winequality/internal/opt"
)

func newRegressor(seed int64, dropout float64) *Network {
	rng := rand.New(rand.NewSource(seed))
	layers := []layer.Layer{
		layer.NewDense(2, 8, activations.ReLU{}, rng),
	}
	if dropout > 0 {
		layers = append(layers, layer.NewDropout(dropout, 8, rng))
	}
	layers = append(layers, layer.NewDense(8, 1, activations.Identity{}, rng))
	return New(layers, loss.MSE{}, opt.NewAdam(0.01))
}

// linearData returns y = 2a - b + 0.5 on a small grid.
func linearData() *Dataset {
	ds := &Dataset{}
	for a := -1.0; a <= 1.0; a += 0.25 {
		for b := -1.0; b <= 1.0; b += 0.25 {
			ds.Samples = append(ds.Samples, []float64{a, b})
			ds.Labels = append(ds.Labels, []float64{2*a - b + 0.5})
		}
	}
	return ds
}

// TestNetworkForward tests forward pass output shape.
func TestNetworkForward(t *testing.T) {
	network := newRegressor(1, 0)

	output := network.Forward([]float64{1.0, 2.0})
	if len(output) != 1 {
		t.Errorf("Output length = %d, want 1", len(output))
	}
}

// TestNetworkFitReducesLoss tests that several epochs lower the evaluation loss.
func TestNetworkFitReducesLoss(t *testing.T) {
	network := newRegressor(1, 0)
	ds := linearData()

	before := network.Evaluate(ds)
	for epoch := 1; epoch <= 200; epoch++ {
		network.Fit(ds, 16, epoch)
	}
	after := network.Evaluate(ds)

	if after >= before/4 {
		t.Errorf("loss did not drop enough: before %v, after %v", before, after)
	}
}

// TestNetworkIterationCounting tests that each minibatch counts as one iteration.
func TestNetworkIterationCounting(t *testing.T) {
	network := newRegressor(1, 0)
	ds := linearData() // 81 samples

	network.Fit(ds, 16, 1)
	if got := network.Iteration(); got != 6 {
		t.Errorf("Iteration() = %d, want 6", got)
	}
}

type recorder struct {
	BaseCallback
	begins, ends []int
	iterations   []int
}

func (r *recorder) OnEpochBegin(epoch int, n *Network) { r.begins = append(r.begins, epoch) }
func (r *recorder) OnEpochEnd(epoch int, loss float64, n *Network) {
	r.ends = append(r.ends, epoch)
}
func (r *recorder) OnBatchEnd(iteration int, score float64, n *Network) {
	r.iterations = append(r.iterations, iteration)
}

// TestNetworkCallbacks tests the order of callback events.
func TestNetworkCallbacks(t *testing.T) {
	network := newRegressor(1, 0)
	rec := &recorder{}
	network.SetCallbacks(rec)

	network.Fit(linearData(), 40, 7)

	if len(rec.begins) != 1 || rec.begins[0] != 7 || len(rec.ends) != 1 || rec.ends[0] != 7 {
		t.Errorf("epoch events = %v / %v, want [7] / [7]", rec.begins, rec.ends)
	}
	want := []int{1, 2, 3}
	if len(rec.iterations) != len(want) {
		t.Fatalf("iterations = %v, want %v", rec.iterations, want)
	}
	for i := range want {
		if rec.iterations[i] != want[i] {
			t.Errorf("iterations = %v, want %v", rec.iterations, want)
		}
	}
}

// TestNetworkL2ShrinksWeights tests that L2 alone decays weights.
func TestNetworkL2ShrinksWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	d := layer.NewDense(2, 1, activations.Identity{}, rng)
	d.SetParams([]float64{1, -1, 0})
	network := New([]layer.Layer{d}, loss.MSE{}, &opt.SGD{LearningRate: 0.1})
	network.SetL2(0.5)

	// zero-loss sample: only the penalty contributes
	network.TrainBatch([][]float64{{0, 0}}, [][]float64{{0}})

	got := d.Params()
	if math.Abs(got[0]-0.95) > 1e-12 || math.Abs(got[1]+0.95) > 1e-12 {
		t.Errorf("weights = %v, want [0.95 -0.95]", got[:2])
	}
	if got[2] != 0 {
		t.Errorf("bias should not be regularized, got %v", got[2])
	}
}

// TestNetworkPredictIsDeterministic tests that Predict disables dropout.
func TestNetworkPredictIsDeterministic(t *testing.T) {
	network := newRegressor(5, 0.5)
	x := []float64{0.3, -0.4}

	first := network.Predict(x)
	for i := 0; i < 10; i++ {
		if got := network.Predict(x); got[0] != first[0] {
			t.Fatalf("Predict varied: %v vs %v", got[0], first[0])
		}
	}
}
