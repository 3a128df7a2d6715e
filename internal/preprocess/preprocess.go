// Package preprocess turns the raw wine quality files into standardized
// training, validation and testing splits.
package preprocess

import (
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/winequality/internal/logging"
)

// Tag identifies this preprocessing variant in output paths.
const Tag = "add_wine_type_shuffle_standardize"

// File names read and written by Standardizing.
const (
	WhiteFile         = "winequality-white.csv"
	RedFile           = "winequality-red.csv"
	TrainingFile      = "training.csv"
	ValidationFile    = "validation.csv"
	TestingFile       = "testing.csv"
	NormalizationFile = "normalization.json"
)

// Wine type flags.
const (
	White = 0
	Red   = 1
)

// DefaultSeed seeds the shuffle unless configured otherwise.
const DefaultSeed = 12345678

var log = logging.New("preprocess")

// Preprocessor prepares the data a trainer reads.
type Preprocessor interface {
	// Tag names the variant in output folder paths.
	Tag() string
	Preprocess() error
	// WriteLog writes reports about the last Preprocess run to folder.
	WriteLog(folder string) error
}

// Standardizing adds the wine type, shuffles, splits and standardizes the
// feature columns with statistics taken from the training split only.
type Standardizing struct {
	RawFolder string
	Folder    string
	Seed      int64

	raw          *Analysis
	standardized *Analysis
	normalizer   *Normalizer
}

// NewStandardizing reads from rawFolder and writes into folder.
func NewStandardizing(rawFolder, folder string) *Standardizing {
	return &Standardizing{RawFolder: rawFolder, Folder: folder, Seed: DefaultSeed}
}

func (p *Standardizing) Tag() string {
	return Tag
}

// Normalizer returns the normalizer fitted by the last run, or nil.
func (p *Standardizing) Normalizer() *Normalizer {
	return p.normalizer
}

// Analyses returns the training split statistics before and after
// standardization. Both are nil when Preprocess skipped its work.
func (p *Standardizing) Analyses() (raw, standardized *Analysis) {
	return p.raw, p.standardized
}

func (p *Standardizing) outputs() []string {
	return []string{
		filepath.Join(p.Folder, TrainingFile),
		filepath.Join(p.Folder, ValidationFile),
		filepath.Join(p.Folder, TestingFile),
	}
}

// Done reports whether all three splits already exist.
func (p *Standardizing) Done() bool {
	for _, path := range p.outputs() {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

func (p *Standardizing) Preprocess() error {
	if p.Done() {
		log.Infof("Output files exist, skipping preprocessing.")
		return nil
	}
	log.Infof("Output does not exist, starting preprocessing.")

	white, err := ReadRaw(filepath.Join(p.RawFolder, WhiteFile), InputSchema)
	if err != nil {
		return err
	}
	red, err := ReadRaw(filepath.Join(p.RawFolder, RedFile), InputSchema)
	if err != nil {
		return err
	}
	all := make([][]float64, 0, len(white)+len(red))
	all = appendWineType(all, white, White)
	all = appendWineType(all, red, Red)

	rng := rand.New(rand.NewSource(p.Seed))
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	testing, validation, training := Split(all)

	typed := InputSchema.With(Column{Name: WineTypeColumn, Kind: Integer})
	raw := Analyze(typed, training, HistogramBuckets)
	log.Infof("Raw training data:\n%s", raw)

	normalizer := NewNormalizer(FeatureColumns...)
	if err := normalizer.Fit(raw); err != nil {
		return err
	}
	schema, perm := typed.MoveToFront(WineTypeColumn)
	for _, split := range [][][]float64{testing, validation, training} {
		permute(split, perm)
		if err := normalizer.Apply(schema, split); err != nil {
			return err
		}
	}

	standardized := Analyze(schema, training, HistogramBuckets)
	log.Infof("Standardized training data:\n%s", standardized)

	if err := p.write(schema, normalizer, training, validation, testing); err != nil {
		return err
	}
	p.raw, p.standardized, p.normalizer = raw, standardized, normalizer
	return nil
}

// write persists the splits and normalizer. On failure every file it
// created is removed again.
func (p *Standardizing) write(schema Schema, n *Normalizer, splits ...[][]float64) (err error) {
	if err := os.MkdirAll(p.Folder, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", p.Folder)
	}
	var created []string
	defer func() {
		if err != nil {
			for _, path := range created {
				os.Remove(path)
			}
		}
	}()

	for i, path := range p.outputs() {
		created = append(created, path)
		if err = writeRecords(path, schema, splits[i]); err != nil {
			created = created[:len(created)-1]
			return err
		}
	}
	path := filepath.Join(p.Folder, NormalizationFile)
	created = append(created, path)
	return n.Save(path)
}

func appendWineType(dst, records [][]float64, wineType float64) [][]float64 {
	for _, rec := range records {
		dst = append(dst, append(rec[:len(rec):len(rec)], wineType))
	}
	return dst
}

// Split partitions records into the first tenth for testing, the second
// tenth for validation and the rest for training. The results share
// storage with records.
func Split(records [][]float64) (testing, validation, training [][]float64) {
	k := len(records) / 10
	return records[:k:k], records[k : 2*k : 2*k], records[2*k:]
}

// writeRecords writes comma separated records without a header. Integer
// columns are written without a fraction.
func writeRecords(path string, schema Schema, records [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	w := csv.NewWriter(f)
	fields := make([]string, len(schema))
	for _, rec := range records {
		for i, v := range rec {
			if schema[i].Kind == Integer {
				fields[i] = strconv.FormatInt(int64(v), 10)
			} else {
				fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := w.Write(fields); err != nil {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "close %s", path)
	}
	return nil
}
