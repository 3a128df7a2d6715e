// Package net provides the feed-forward network, its training loop hooks,
// CSV datasets and checkpoint serialization.
package net

import (
	"github.com/FlavioCFOliveira/winequality/internal/layer"
	"github.com/FlavioCFOliveira/winequality/internal/loss"
	"github.com/FlavioCFOliveira/winequality/internal/opt"
)

// Network is a collection of layers that can be forwarded and backwarded.
type Network struct {
	layers []layer.Layer
	loss   loss.Loss
	opt    opt.Optimizer
	l2     float64

	iteration int
	callbacks []Callback

	// reused across samples
	lossGrad []float64
}

// New creates a new neural network with the given layers.
func New(layers []layer.Layer, loss loss.Loss, optimizer opt.Optimizer) *Network {
	return &Network{
		layers: layers,
		loss:   loss,
		opt:    optimizer,
	}
}

// SetL2 sets the L2 regularization coefficient applied to layer weights.
func (n *Network) SetL2(l2 float64) {
	n.l2 = l2
}

// L2 returns the L2 regularization coefficient.
func (n *Network) L2() float64 {
	return n.l2
}

// SetCallbacks replaces the registered training callbacks.
func (n *Network) SetCallbacks(callbacks ...Callback) {
	n.callbacks = callbacks
}

// Iteration returns the number of minibatch updates applied so far.
func (n *Network) Iteration() int {
	return n.iteration
}

// SetIteration restores the update counter, e.g. after loading a checkpoint.
func (n *Network) SetIteration(it int) {
	n.iteration = it
}

// SetTraining switches layers such as dropout between training and inference.
func (n *Network) SetTraining(training bool) {
	for _, l := range n.layers {
		if t, ok := l.(layer.TrainingAware); ok {
			t.SetTraining(training)
		}
	}
}

// Forward performs a forward pass through all layers.
func (n *Network) Forward(x []float64) []float64 {
	curr := x
	for i := range n.layers {
		curr = n.layers[i].Forward(curr)
	}
	return curr
}

// Predict runs an inference-mode forward pass and returns a copy of the output.
func (n *Network) Predict(x []float64) []float64 {
	n.SetTraining(false)
	out := n.Forward(x)
	return append([]float64(nil), out...)
}

// Backward performs a backward pass through all layers.
func (n *Network) Backward(grad []float64) []float64 {
	curr := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		curr = n.layers[i].Backward(curr)
	}
	return curr
}

// Step applies one optimizer update to every layer, adding the L2 penalty
// gradient to the weights first.
func (n *Network) Step() {
	for slot, l := range n.layers {
		params := l.Params()
		if len(params) == 0 {
			continue
		}
		gradients := l.Gradients()
		if w, ok := l.(layer.Weighted); ok && n.l2 > 0 {
			for i := 0; i < w.WeightCount(); i++ {
				gradients[i] += n.l2 * params[i]
			}
		}
		n.opt.Step(slot, params, gradients)
		l.SetParams(params)
	}
}

// penalty returns 0.5 * l2 * sum(w^2) over all regularized weights.
func (n *Network) penalty() float64 {
	if n.l2 == 0 {
		return 0
	}
	var sum float64
	for _, l := range n.layers {
		w, ok := l.(layer.Weighted)
		if !ok {
			continue
		}
		for _, p := range l.Params()[:w.WeightCount()] {
			sum += p * p
		}
	}
	return 0.5 * n.l2 * sum
}

// TrainBatch performs one update on a minibatch. Gradients are accumulated
// over the batch and averaged before the optimizer step. The returned score
// is the mean data loss plus the L2 penalty.
func (n *Network) TrainBatch(batchX [][]float64, batchY [][]float64) float64 {
	batchSize := len(batchX)
	if batchSize == 0 {
		return 0
	}
	n.SetTraining(true)
	for _, l := range n.layers {
		l.ZeroGradients()
	}

	var totalLoss float64
	for i := 0; i < batchSize; i++ {
		yPred := n.Forward(batchX[i])
		totalLoss += n.loss.Score(yPred, batchY[i])

		if cap(n.lossGrad) < len(yPred) {
			n.lossGrad = make([]float64, len(yPred))
		}
		grad := n.lossGrad[:len(yPred)]
		n.loss.Gradient(yPred, batchY[i], grad)
		for j := range grad {
			grad[j] /= float64(batchSize)
		}

		_ = n.Backward(grad)
	}

	n.Step()
	n.iteration++

	score := totalLoss/float64(batchSize) + n.penalty()
	for _, cb := range n.callbacks {
		cb.OnBatchEnd(n.iteration, score, n)
	}
	return score
}

// Fit trains for one epoch over ds in order, in minibatches of batchSize,
// and returns the mean batch score.
func (n *Network) Fit(ds *Dataset, batchSize int, epoch int) float64 {
	for _, cb := range n.callbacks {
		cb.OnEpochBegin(epoch, n)
	}
	var total float64
	batches := 0
	for start := 0; start < ds.Len(); start += batchSize {
		x, y := ds.Batch(start, batchSize)
		total += n.TrainBatch(x, y)
		batches++
	}
	mean := 0.0
	if batches > 0 {
		mean = total / float64(batches)
	}
	for _, cb := range n.callbacks {
		cb.OnEpochEnd(epoch, mean, n)
	}
	return mean
}

// Evaluate calculates the average loss on a dataset in inference mode.
func (n *Network) Evaluate(ds *Dataset) float64 {
	if ds.Len() == 0 {
		return 0
	}
	var total float64
	for i := range ds.Samples {
		total += n.loss.Score(n.Predict(ds.Samples[i]), ds.Labels[i])
	}
	return total / float64(ds.Len())
}

// Params returns all network parameters flattened (copy).
func (n *Network) Params() []float64 {
	var params []float64
	for _, l := range n.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// SetParams distributes a flattened parameter slice over the layers.
func (n *Network) SetParams(params []float64) {
	offset := 0
	for _, l := range n.layers {
		size := len(l.Params())
		if size == 0 {
			continue
		}
		l.SetParams(params[offset : offset+size])
		offset += size
	}
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// Optimizer returns the optimizer driving updates.
func (n *Network) Optimizer() opt.Optimizer {
	return n.opt
}
