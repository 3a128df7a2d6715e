// Package opt provides optimization algorithms.
package opt

import "github.com/pkg/errors"

// Optimizer updates network parameters based on gradients.
type Optimizer interface {
	// Step updates params in place. slot identifies the parameter group
	// (one per layer) so stateful optimizers can keep per-parameter history.
	Step(slot int, params, gradients []float64)

	// Name identifies the optimizer in checkpoints.
	Name() string

	// State returns a snapshot of the optimizer's internal state.
	State() State

	// SetState restores a snapshot taken from an optimizer of the same kind.
	SetState(State) error
}

// State is a serializable optimizer snapshot.
type State struct {
	Name         string
	LearningRate float64
	Iteration    int
	Buffers      map[string][][]float64
}

// ErrStateMismatch is returned when restoring state saved by another optimizer.
var ErrStateMismatch = errors.New("optimizer state mismatch")

func checkName(want string, s State) error {
	if s.Name != want {
		return errors.Wrapf(ErrStateMismatch, "want %s, got %s", want, s.Name)
	}
	return nil
}

// slotBuffer returns buf[slot] grown to n values, extending buf as needed.
func slotBuffer(buf *[][]float64, slot, n int) []float64 {
	for len(*buf) <= slot {
		*buf = append(*buf, nil)
	}
	if len((*buf)[slot]) != n {
		(*buf)[slot] = make([]float64, n)
	}
	return (*buf)[slot]
}

func copyBuffers(src [][]float64) [][]float64 {
	out := make([][]float64, len(src))
	for i, b := range src {
		out[i] = append([]float64(nil), b...)
	}
	return out
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64
}

// Step computes params -= lr * gradients
func (s *SGD) Step(_ int, params, gradients []float64) {
	for i := range params {
		params[i] -= s.LearningRate * gradients[i]
	}
}

func (s *SGD) Name() string { return "sgd" }

func (s *SGD) State() State {
	return State{Name: s.Name(), LearningRate: s.LearningRate}
}

func (s *SGD) SetState(st State) error {
	if err := checkName(s.Name(), st); err != nil {
		return err
	}
	s.LearningRate = st.LearningRate
	return nil
}

// New builds an empty optimizer of the named kind.
func New(name string, learningRate float64) (Optimizer, error) {
	switch name {
	case "sgd":
		return &SGD{LearningRate: learningRate}, nil
	case "rmsprop":
		return NewRMSProp(learningRate), nil
	case "adam":
		return NewAdam(learningRate), nil
	}
	return nil, errors.Errorf("unknown optimizer %q", name)
}
