package preprocess

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadRaw reads a semicolon separated file with a header line whose columns
// match schema.
func ReadRaw(path string, schema Schema) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open raw data")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = len(schema)
	if _, err := r.Read(); err != nil {
		return nil, errors.Wrapf(err, "%s: read header", path)
	}

	var records [][]float64
	for row := 1; ; row++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		rec := make([]float64, len(schema))
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err == nil && schema[i].Kind == Integer && v != math.Trunc(v) {
				err = errors.Errorf("%q is not an integer", field)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "%s: row %d, column %q", path, row, schema[i].Name)
			}
			rec[i] = v
		}
		records = append(records, rec)
	}
	return records, nil
}
