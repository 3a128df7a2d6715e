package opt

import "math"

// RMSProp keeps a decaying average of squared gradients per parameter and
// scales each update by its root.
type RMSProp struct {
	LearningRate float64
	Decay        float64
	Epsilon      float64

	cache [][]float64
}

// NewRMSProp creates an RMSProp optimizer with decay 0.95 and epsilon 1e-8.
func NewRMSProp(learningRate float64) *RMSProp {
	return &RMSProp{
		LearningRate: learningRate,
		Decay:        0.95,
		Epsilon:      1e-8,
	}
}

// Step updates params in place.
func (r *RMSProp) Step(slot int, params, gradients []float64) {
	cache := slotBuffer(&r.cache, slot, len(params))
	for i, g := range gradients {
		cache[i] = r.Decay*cache[i] + (1-r.Decay)*g*g
		params[i] -= r.LearningRate * g / (math.Sqrt(cache[i]) + r.Epsilon)
	}
}

func (r *RMSProp) Name() string { return "rmsprop" }

func (r *RMSProp) State() State {
	return State{
		Name:         r.Name(),
		LearningRate: r.LearningRate,
		Buffers:      map[string][][]float64{"cache": copyBuffers(r.cache)},
	}
}

func (r *RMSProp) SetState(st State) error {
	if err := checkName(r.Name(), st); err != nil {
		return err
	}
	r.LearningRate = st.LearningRate
	r.cache = copyBuffers(st.Buffers["cache"])
	return nil
}
