// Package trainer wraps the fixed wine quality network behind the Trainer
// interface used by the training loop and the command line tools.
package trainer

import (
	"math/rand"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/winequality/internal/activations"
	"github.com/FlavioCFOliveira/winequality/internal/eval"
	"github.com/FlavioCFOliveira/winequality/internal/layer"
	"github.com/FlavioCFOliveira/winequality/internal/logging"
	"github.com/FlavioCFOliveira/winequality/internal/loss"
	"github.com/FlavioCFOliveira/winequality/internal/monitor"
	"github.com/FlavioCFOliveira/winequality/internal/net"
	"github.com/FlavioCFOliveira/winequality/internal/opt"
	"github.com/FlavioCFOliveira/winequality/internal/preprocess"
)

// Tag identifies this network variant in output paths.
const Tag = "multilayer_less_overfit_large_batch_size"

var log = logging.New("trainer")

// Trainer trains and evaluates one model on the preprocessed splits.
type Trainer interface {
	// Tag names the variant in output folder paths.
	Tag() string
	// Train runs one epoch over the training split.
	Train() error
	Validate() (*eval.Regression, error)
	Test() (*eval.Regression, error)
	// LoadState replaces the model with the checkpoint at path.
	LoadState(path string) error
	// SaveState writes a checkpoint to path.
	SaveState(path string) error
}

// Config holds the hyperparameters of the multilayer network.
type Config struct {
	// Widths lists the layer sizes from input to output.
	Widths       []int   `json:"widths"`
	Seed         int64   `json:"seed"`
	LearningRate float64 `json:"learningRate"`
	L2           float64 `json:"l2"`
	// DropOut is the probability of zeroing a hidden layer input in training.
	DropOut   float64 `json:"dropOut"`
	BatchSize int     `json:"batchSize"`
	// PrintIterations is the score logging interval.
	PrintIterations int `json:"printIterations"`
}

// DefaultConfig returns the hyperparameters of the reference model.
func DefaultConfig() Config {
	return Config{
		Widths:          []int{12, 128, 64, 32, 16, 1},
		Seed:            12345678,
		LearningRate:    0.1,
		L2:              0.1,
		DropOut:         0.3,
		BatchSize:       256,
		PrintIterations: 500,
	}
}

func (c Config) validate() error {
	if len(c.Widths) < 2 {
		return errors.New("config: need at least an input and an output width")
	}
	for _, w := range c.Widths {
		if w <= 0 {
			return errors.Errorf("config: invalid layer width %d", w)
		}
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("config: invalid batch size %d", c.BatchSize)
	}
	if c.DropOut < 0 || c.DropOut >= 1 {
		return errors.Errorf("config: invalid dropout %g", c.DropOut)
	}
	return nil
}

// Multilayer is a dense ReLU network with an identity output, trained with
// RMSProp on the mean squared error.
type Multilayer struct {
	folder string
	cfg    Config
	rng    *rand.Rand

	nn        *net.Network
	epoch     int
	stats     *monitor.StatsListener
	listeners []net.Callback
	datasets  map[string]*net.Dataset
}

// NewMultilayer builds a fresh network reading splits from folder. stats
// may be nil.
func NewMultilayer(folder string, cfg Config, stats *monitor.StatsListener) (*Multilayer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Multilayer{
		folder:   folder,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		stats:    stats,
		datasets: make(map[string]*net.Dataset),
	}
	m.nn = m.build()
	m.attachListeners()
	return m, nil
}

func (m *Multilayer) build() *net.Network {
	var layers []layer.Layer
	last := len(m.cfg.Widths) - 2
	for i := 0; i <= last; i++ {
		in, out := m.cfg.Widths[i], m.cfg.Widths[i+1]
		if i > 0 && m.cfg.DropOut > 0 {
			layers = append(layers, layer.NewDropout(m.cfg.DropOut, in, m.rng))
		}
		var act activations.Activation = activations.ReLU{}
		if i == last {
			act = activations.Identity{}
		}
		layers = append(layers, layer.NewDense(in, out, act, m.rng))
	}
	nn := net.New(layers, loss.MSE{}, opt.NewRMSProp(m.cfg.LearningRate))
	nn.SetL2(m.cfg.L2)
	return nn
}

// AddListener registers an extra callback that survives LoadState.
func (m *Multilayer) AddListener(cb net.Callback) {
	m.listeners = append(m.listeners, cb)
	m.attachListeners()
}

func (m *Multilayer) attachListeners() {
	callbacks := []net.Callback{net.ScoreLogger{Interval: m.cfg.PrintIterations, Log: log}}
	if m.stats != nil {
		callbacks = append(callbacks, m.stats)
	}
	m.nn.SetCallbacks(append(callbacks, m.listeners...)...)
}

func (m *Multilayer) Tag() string {
	return Tag
}

// Epoch returns the number of completed training epochs.
func (m *Multilayer) Epoch() int {
	return m.epoch
}

// Network returns the current network.
func (m *Multilayer) Network() *net.Network {
	return m.nn
}

// dataset loads a split once. The label is the last column.
func (m *Multilayer) dataset(name string) (*net.Dataset, error) {
	if ds, ok := m.datasets[name]; ok {
		return ds, nil
	}
	label := len(preprocess.OutputSchema) - 1
	ds, err := net.LoadCSV(filepath.Join(m.folder, name), []int{label}, false)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	if len(ds.Samples[0]) != m.cfg.Widths[0] {
		return nil, errors.Errorf("%s has %d features, network expects %d", name, len(ds.Samples[0]), m.cfg.Widths[0])
	}
	m.datasets[name] = ds
	return ds, nil
}

func (m *Multilayer) Train() error {
	ds, err := m.dataset(preprocess.TrainingFile)
	if err != nil {
		return err
	}
	m.epoch++
	m.nn.Fit(ds, m.cfg.BatchSize, m.epoch)
	return nil
}

func (m *Multilayer) Validate() (*eval.Regression, error) {
	return m.evaluate(preprocess.ValidationFile, monitor.ValidationReport)
}

func (m *Multilayer) Test() (*eval.Regression, error) {
	return m.evaluate(preprocess.TestingFile, monitor.TestReport)
}

func (m *Multilayer) evaluate(name string, kind monitor.ReportType) (*eval.Regression, error) {
	ds, err := m.dataset(name)
	if err != nil {
		return nil, err
	}
	ev := eval.NewRegression(preprocess.QualityColumn)
	for i, x := range ds.Samples {
		ev.Add(ds.Labels[i], m.nn.Predict(x))
	}
	log.Infof("Evaluation of %s after epoch %d:\n%s", name, m.epoch, ev)
	if m.stats != nil {
		m.stats.Evaluation(kind, m.nn.Iteration(), ev)
	}
	return ev, nil
}

func (m *Multilayer) SaveState(path string) error {
	cp, err := m.nn.Checkpoint(net.Meta{Epoch: m.epoch, Tag: Tag, Saved: time.Now()})
	if err != nil {
		return err
	}
	if err := net.WriteCheckpoint(path, cp); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	log.Infof("Saved epoch %d to %s", m.epoch, path)
	return nil
}

func (m *Multilayer) LoadState(path string) error {
	cp, err := net.ReadCheckpoint(path)
	if err != nil {
		return err
	}
	nn, err := cp.Restore(m.rng)
	if err != nil {
		return errors.Wrapf(err, "restore %s", path)
	}
	layers := nn.Layers()
	if len(layers) == 0 {
		return errors.Wrapf(net.ErrCorruptCheckpoint, "%s: no layers", path)
	}
	if in, out := layers[0].InSize(), layers[len(layers)-1].OutSize(); in != m.cfg.Widths[0] || out != m.cfg.Widths[len(m.cfg.Widths)-1] {
		return errors.Errorf("%s: network is %d -> %d, expected %d -> %d",
			path, in, out, m.cfg.Widths[0], m.cfg.Widths[len(m.cfg.Widths)-1])
	}
	m.nn = nn
	m.epoch = cp.Meta.Epoch
	m.attachListeners()
	log.Infof("Loaded epoch %d (iteration %d) from %s", cp.Meta.Epoch, cp.Meta.Iteration, path)
	return nil
}
