package monitor

import (
	"math"
	"time"

	"github.com/FlavioCFOliveira/winequality/internal/eval"
	"github.com/FlavioCFOliveira/winequality/internal/net"
)

// StatsListener is a network callback that turns training progress into
// reports for a Router.
type StatsListener struct {
	net.BaseCallback
	Router  Router
	Session string
	Worker  string
	// Every limits iteration reports to one per Every iterations. 0 sends all.
	Every int

	epoch int
	now   func() time.Time
}

// NewStatsListener returns a listener routing under session and worker.
func NewStatsListener(router Router, session, worker string) *StatsListener {
	return &StatsListener{Router: router, Session: session, Worker: worker, now: time.Now}
}

func (l *StatsListener) report(t ReportType, iteration int, score float64) Report {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	return Report{
		Session:   l.Session,
		Worker:    l.Worker,
		Type:      t,
		Epoch:     l.epoch,
		Iteration: iteration,
		Score:     score,
		Time:      now(),
	}
}

func (l *StatsListener) OnEpochBegin(epoch int, n *net.Network) {
	l.epoch = epoch
}

func (l *StatsListener) OnBatchEnd(iteration int, score float64, n *net.Network) {
	if l.Every > 1 && iteration%l.Every != 0 {
		return
	}
	l.Router.Route(l.report(IterationReport, iteration, score))
}

func (l *StatsListener) OnEpochEnd(epoch int, loss float64, n *net.Network) {
	l.epoch = epoch
	l.Router.Route(l.report(EpochReport, n.Iteration(), loss))
}

// Evaluation routes the metrics of the first output column of ev. The
// score is the mean squared error. Undefined metrics, such as the
// correlation of constant predictions, are left out.
func (l *StatsListener) Evaluation(t ReportType, iteration int, ev *eval.Regression) {
	if ev.Count() == 0 {
		return
	}
	rep := l.report(t, iteration, ev.MSE(0))
	rep.Metrics = make(map[string]float64)
	for name, v := range map[string]float64{
		"mse":  ev.MSE(0),
		"mae":  ev.MAE(0),
		"rmse": ev.RMSE(0),
		"rse":  ev.RSE(0),
		"pc":   ev.Correlation(0),
		"r2":   ev.RSquared(0),
	} {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			rep.Metrics[name] = v
		}
	}
	l.Router.Route(rep)
}
