package net

import (
	"archive/zip"
	"encoding/gob"
	"encoding/json"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/winequality/internal/activations"
	"github.com/FlavioCFOliveira/winequality/internal/layer"
	"github.com/FlavioCFOliveira/winequality/internal/loss"
	"github.com/FlavioCFOliveira/winequality/internal/opt"
)

// Entry names inside a checkpoint zip.
const (
	configEntry  = "configuration.json"
	paramsEntry  = "coefficients.bin"
	updaterEntry = "updaterState.bin"
	metaEntry    = "metadata.json"
)

// ErrCorruptCheckpoint is returned when a checkpoint cannot be decoded.
var ErrCorruptCheckpoint = errors.New("corrupt checkpoint")

// LayerConfig holds the configuration needed to reconstruct a layer.
type LayerConfig struct {
	Type       string  `json:"type"`
	InSize     int     `json:"nIn"`
	OutSize    int     `json:"nOut"`
	Activation string  `json:"activation,omitempty"`
	DropOut    float64 `json:"dropOut,omitempty"`
}

// Config describes a network's topology and training setup.
type Config struct {
	Layers       []LayerConfig `json:"layers"`
	Loss         string        `json:"loss"`
	Updater      string        `json:"updater"`
	LearningRate float64       `json:"learningRate"`
	L2           float64       `json:"l2"`
}

// Meta records where in training a checkpoint was taken.
type Meta struct {
	Epoch     int       `json:"epoch"`
	Iteration int       `json:"iteration"`
	Tag       string    `json:"tag,omitempty"`
	Saved     time.Time `json:"saved"`
}

// Checkpoint is the full persisted state of a network.
type Checkpoint struct {
	Config  Config
	Params  []float64
	Updater opt.State
	Meta    Meta
}

// ExtractLayerConfig extracts the configuration from a layer.
func ExtractLayerConfig(l layer.Layer) (LayerConfig, error) {
	switch l := l.(type) {
	case *layer.Dense:
		return LayerConfig{
			Type:       "dense",
			InSize:     l.InSize(),
			OutSize:    l.OutSize(),
			Activation: l.Activation().Name(),
		}, nil
	case *layer.Dropout:
		return LayerConfig{
			Type:    "dropout",
			InSize:  l.InSize(),
			OutSize: l.OutSize(),
			DropOut: l.Rate(),
		}, nil
	}
	return LayerConfig{}, errors.Errorf("unsupported layer type %T", l)
}

// CreateLayer creates a new layer from the configuration.
func (c LayerConfig) CreateLayer(rng *rand.Rand) (layer.Layer, error) {
	switch c.Type {
	case "dense":
		act, ok := activations.ByName(c.Activation)
		if !ok {
			return nil, errors.Errorf("unknown activation %q", c.Activation)
		}
		return layer.NewDense(c.InSize, c.OutSize, act, rng), nil
	case "dropout":
		return layer.NewDropout(c.DropOut, c.InSize, rng), nil
	}
	return nil, errors.Errorf("unsupported layer type: %s", c.Type)
}

// Checkpoint snapshots the network together with meta.
func (n *Network) Checkpoint(meta Meta) (*Checkpoint, error) {
	cfg := Config{L2: n.l2, Updater: n.opt.Name(), Loss: n.loss.Name()}
	for _, l := range n.layers {
		lc, err := ExtractLayerConfig(l)
		if err != nil {
			return nil, err
		}
		cfg.Layers = append(cfg.Layers, lc)
	}
	state := n.opt.State()
	cfg.LearningRate = state.LearningRate
	meta.Iteration = n.iteration
	return &Checkpoint{
		Config:  cfg,
		Params:  n.Params(),
		Updater: state,
		Meta:    meta,
	}, nil
}

// Restore rebuilds the network described by the checkpoint. rng seeds the
// dropout masks of the restored network.
func (cp *Checkpoint) Restore(rng *rand.Rand) (*Network, error) {
	var layers []layer.Layer
	want := 0
	for i, lc := range cp.Config.Layers {
		l, err := lc.CreateLayer(rng)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		want += len(l.Params())
		layers = append(layers, l)
	}
	if want != len(cp.Params) {
		return nil, errors.Wrapf(ErrCorruptCheckpoint, "expected %d parameters, found %d", want, len(cp.Params))
	}

	lossFn, ok := loss.ByName(cp.Config.Loss)
	if !ok {
		return nil, errors.Errorf("unsupported loss %q", cp.Config.Loss)
	}

	optimizer, err := opt.New(cp.Config.Updater, cp.Config.LearningRate)
	if err != nil {
		return nil, err
	}
	if err := optimizer.SetState(cp.Updater); err != nil {
		return nil, err
	}

	n := New(layers, lossFn, optimizer)
	n.SetParams(cp.Params)
	n.SetL2(cp.Config.L2)
	n.SetIteration(cp.Meta.Iteration)
	return n, nil
}

// WriteCheckpoint writes cp to path as a zip archive. The archive is built in
// a temporary file next to path and renamed into place, so readers never see
// a partial checkpoint.
func WriteCheckpoint(path string, cp *Checkpoint) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".checkpoint-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create checkpoint")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	if err = writeJSON(zw, configEntry, cp.Config); err != nil {
		return err
	}
	if err = writeGob(zw, paramsEntry, cp.Params); err != nil {
		return err
	}
	if err = writeGob(zw, updaterEntry, cp.Updater); err != nil {
		return err
	}
	if err = writeJSON(zw, metaEntry, cp.Meta); err != nil {
		return err
	}
	if err = zw.Close(); err != nil {
		return errors.Wrap(err, "finish checkpoint archive")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync checkpoint")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close checkpoint")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "rename checkpoint")
}

func writeJSON(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(v), "encode %s", name)
}

func writeGob(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}
	return errors.Wrapf(gob.NewEncoder(w).Encode(v), "encode %s", name)
}

// ReadCheckpoint reads a checkpoint written by WriteCheckpoint.
func ReadCheckpoint(path string) (*Checkpoint, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptCheckpoint, "%s: %v", path, err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	cp := &Checkpoint{}
	decoders := []struct {
		name   string
		decode func(io.Reader) error
	}{
		{configEntry, func(r io.Reader) error { return json.NewDecoder(r).Decode(&cp.Config) }},
		{paramsEntry, func(r io.Reader) error { return gob.NewDecoder(r).Decode(&cp.Params) }},
		{updaterEntry, func(r io.Reader) error { return gob.NewDecoder(r).Decode(&cp.Updater) }},
		{metaEntry, func(r io.Reader) error { return json.NewDecoder(r).Decode(&cp.Meta) }},
	}
	for _, d := range decoders {
		f, ok := entries[d.name]
		if !ok {
			return nil, errors.Wrapf(ErrCorruptCheckpoint, "%s: missing %s", path, d.name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptCheckpoint, "%s: open %s: %v", path, d.name, err)
		}
		err = d.decode(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptCheckpoint, "%s: decode %s: %v", path, d.name, err)
		}
	}
	return cp, nil
}
