package net

// Callback receives training progress events from a Network.
type Callback interface {
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(epoch int, loss float64, n *Network)
	OnBatchEnd(iteration int, score float64, n *Network)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnEpochBegin(epoch int, n *Network) {}
func (c BaseCallback) OnEpochEnd(epoch int, loss float64, n *Network) {}
func (c BaseCallback) OnBatchEnd(iteration int, score float64, n *Network) {}

// Printer is satisfied by *log.Logger and the project's logging.Logger.
type Printer interface {
	Printf(format string, args ...any)
}

// ScoreLogger logs the score every Interval iterations.
type ScoreLogger struct {
	BaseCallback
	Interval int
	Log      Printer
}

func (c ScoreLogger) OnBatchEnd(iteration int, score float64, n *Network) {
	if c.Interval > 0 && iteration%c.Interval == 0 {
		c.Log.Printf("Score at iteration %d is %.6f", iteration, score)
	}
}
