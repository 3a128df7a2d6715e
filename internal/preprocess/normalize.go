package preprocess

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

var (
	// ErrNotFitted is returned when applying a normalizer before Fit.
	ErrNotFitted = errors.New("normalizer not fitted")
	// ErrAlreadyFitted is returned by a second call to Fit.
	ErrAlreadyFitted = errors.New("normalizer already fitted")
)

// Standardization holds the frozen parameters for one column.
type Standardization struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// Apply standardizes v. A zero standard deviation only centers it.
func (s Standardization) Apply(v float64) float64 {
	if s.StdDev == 0 {
		return v - s.Mean
	}
	return (v - s.Mean) / s.StdDev
}

// Normalizer standardizes a fixed set of columns using statistics fitted once.
type Normalizer struct {
	columns []string
	params  []Standardization
}

// NewNormalizer returns an unfitted normalizer for the named columns.
func NewNormalizer(columns ...string) *Normalizer {
	return &Normalizer{columns: columns}
}

// Fit freezes the mean and standard deviation of every column from a.
func (n *Normalizer) Fit(a *Analysis) error {
	if n.Fitted() {
		return ErrAlreadyFitted
	}
	params := make([]Standardization, 0, len(n.columns))
	for _, name := range n.columns {
		c, ok := a.Column(name)
		if !ok {
			return errors.Errorf("fit: column %q not analyzed", name)
		}
		params = append(params, Standardization{Column: name, Mean: c.Mean, StdDev: c.StdDev})
	}
	n.params = params
	return nil
}

// Fitted reports whether Fit has succeeded.
func (n *Normalizer) Fitted() bool {
	return n.params != nil
}

// Params returns the fitted parameters.
func (n *Normalizer) Params() []Standardization {
	return n.params
}

// Apply standardizes the normalizer's columns of records in place. Other
// columns are left unchanged.
func (n *Normalizer) Apply(schema Schema, records [][]float64) error {
	if !n.Fitted() {
		return ErrNotFitted
	}
	idx := make([]int, len(n.params))
	for i, p := range n.params {
		if idx[i] = schema.Index(p.Column); idx[i] < 0 {
			return errors.Errorf("apply: column %q not in schema", p.Column)
		}
	}
	for _, rec := range records {
		for i, p := range n.params {
			rec[idx[i]] = p.Apply(rec[idx[i]])
		}
	}
	return nil
}

// Save writes the fitted parameters as JSON.
func (n *Normalizer) Save(path string) error {
	if !n.Fitted() {
		return ErrNotFitted
	}
	data, err := json.MarshalIndent(n.params, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode normalizer")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write normalizer")
}

// LoadNormalizer reads parameters written by Save. The result is fitted.
func LoadNormalizer(path string) (*Normalizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read normalizer")
	}
	var params []Standardization
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	n := &Normalizer{params: make([]Standardization, 0, len(params))}
	for _, p := range params {
		n.columns = append(n.columns, p.Column)
		n.params = append(n.params, p)
	}
	return n, nil
}
