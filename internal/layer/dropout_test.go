package layer

import (
	"testing"
)

func TestDropoutForwardTraining(t *testing.T) {
	dropout := NewDropout(0.5, 100, newRNG())

	input := make([]float64, 100)
	for i := range input {
		input[i] = 1.0
	}

	output := dropout.Forward(input)

	nonZero := 0
	for _, v := range output {
		if v != 0 {
			nonZero++
			if v != 2.0 {
				t.Errorf("kept unit should be scaled to 2, got %v", v)
			}
		}
	}

	// Approximately 50% should be non-zero
	if nonZero < 30 || nonZero > 70 {
		t.Errorf("Expected ~50%% non-zero outputs, got %d/100", nonZero)
	}
}

func TestDropoutForwardInference(t *testing.T) {
	dropout := NewDropout(0.5, 100, newRNG())
	dropout.SetTraining(false)

	input := make([]float64, 100)
	for i := range input {
		input[i] = float64(i)
	}

	output := dropout.Forward(input)

	for i := range input {
		if output[i] != input[i] {
			t.Errorf("Output[%d] = %f, expected %f", i, output[i], input[i])
		}
	}
}

func TestDropoutBackward(t *testing.T) {
	dropout := NewDropout(0.3, 10, newRNG())

	input := make([]float64, 10)
	for i := range input {
		input[i] = 1.0
	}
	out := append([]float64(nil), dropout.Forward(input)...)

	grad := make([]float64, 10)
	for i := range grad {
		grad[i] = 1.0
	}

	gradIn := dropout.Backward(grad)

	// gradient flows exactly where the forward pass kept the unit
	for i := 0; i < 10; i++ {
		if gradIn[i] != out[i] {
			t.Errorf("gradIn[%d] = %v, want %v", i, gradIn[i], out[i])
		}
	}
}
