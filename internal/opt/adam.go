package opt

import "math"

// Adam optimizer with bias-corrected first and second moments.
type Adam struct {
	LearningRate float64
	Beta1        float64 // Exponential decay rate for first moment
	Beta2        float64 // Exponential decay rate for second moment
	Epsilon      float64 // Small constant for numerical stability

	m, v [][]float64
	t    []int
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Step updates params in place using Adam.
func (a *Adam) Step(slot int, params, gradients []float64) {
	m := slotBuffer(&a.m, slot, len(params))
	v := slotBuffer(&a.v, slot, len(params))
	for len(a.t) <= slot {
		a.t = append(a.t, 0)
	}
	a.t[slot]++
	t := float64(a.t[slot])

	c1 := 1 - math.Pow(a.Beta1, t)
	c2 := 1 - math.Pow(a.Beta2, t)
	for i, g := range gradients {
		m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
		v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
		mHat := m[i] / c1
		vHat := v[i] / c2
		params[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}

func (a *Adam) Name() string { return "adam" }

func (a *Adam) State() State {
	steps := make([]float64, len(a.t))
	for i, n := range a.t {
		steps[i] = float64(n)
	}
	return State{
		Name:         a.Name(),
		LearningRate: a.LearningRate,
		Buffers: map[string][][]float64{
			"m":     copyBuffers(a.m),
			"v":     copyBuffers(a.v),
			"steps": {steps},
		},
	}
}

func (a *Adam) SetState(st State) error {
	if err := checkName(a.Name(), st); err != nil {
		return err
	}
	a.LearningRate = st.LearningRate
	a.m = copyBuffers(st.Buffers["m"])
	a.v = copyBuffers(st.Buffers["v"])
	a.t = a.t[:0]
	if steps := st.Buffers["steps"]; len(steps) == 1 {
		for _, n := range steps[0] {
			a.t = append(a.t, int(n))
		}
	}
	return nil
}
