// Package datasets loads MNIST-style image data into gonum matrices.
//
// The CSV layout is the Kaggle one: an optional header row, then one sample
// per row with the label first and the pixel intensities after it.
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// Dataset is a feature matrix with optional integer labels.
type Dataset struct {
	X *mat.Dense
	Y *mat.VecDense // nil for unlabelled data
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	if d == nil || d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// CSVOptions controls ReadCSV.
type CSVOptions struct {
	// FeatureLength is the number of pixel columns. Zero accepts the width
	// of the first row.
	FeatureLength int

	// Unlabeled means rows carry pixels only.
	Unlabeled bool

	// MaxSamples limits the rows read. Zero reads everything.
	MaxSamples int
}

// LoadCSV reads the CSV file at path.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	ds, err := ReadCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return ds, nil
}

// ReadCSV parses samples from r. A first row whose first field is not a
// number is treated as a header and skipped.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	offset := 1
	if opts.Unlabeled {
		offset = 0
	}
	width := opts.FeatureLength

	var (
		pixels []float64
		labels []float64
		row    int
	)
	for line := 1; opts.MaxSamples <= 0 || row < opts.MaxSamples; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CSV")
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if width == 0 {
			width = len(rec) - offset
		}
		if len(rec)-offset != width || width <= 0 {
			return nil, errors.NewDimensionError(fmt.Sprintf("datasets.ReadCSV line %d", line), width+offset, len(rec), 1)
		}

		if !opts.Unlabeled {
			label, err := strconv.Atoi(strings.TrimSpace(rec[0]))
			if err != nil || label < 0 {
				return nil, errors.NewValueError("datasets.ReadCSV",
					fmt.Sprintf("invalid label %q at line %d", rec[0], line))
			}
			labels = append(labels, float64(label))
		}
		for j, field := range rec[offset:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.NewValueError("datasets.ReadCSV",
					fmt.Sprintf("invalid pixel %q at line %d, column %d", field, line, j+offset+1))
			}
			pixels = append(pixels, v)
		}
		row++
	}

	if row == 0 {
		return nil, errors.ErrEmptyData
	}
	ds := &Dataset{X: mat.NewDense(row, width, pixels)}
	if !opts.Unlabeled {
		ds.Y = mat.NewVecDense(row, labels)
	}
	return ds, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	return err != nil
}

// WriteCSV writes ds in the layout ReadCSV reads, with a header row.
func WriteCSV(w io.Writer, ds *Dataset) error {
	n, width := ds.X.Dims()
	cw := csv.NewWriter(w)

	header := make([]string, 0, width+1)
	if ds.Y != nil {
		header = append(header, "label")
	}
	for j := 0; j < width; j++ {
		header = append(header, "pixel"+strconv.Itoa(j))
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	rec := make([]string, 0, width+1)
	for i := 0; i < n; i++ {
		rec = rec[:0]
		if ds.Y != nil {
			rec = append(rec, strconv.Itoa(int(ds.Y.AtVec(i))))
		}
		for j := 0; j < width; j++ {
			rec = append(rec, strconv.FormatFloat(ds.X.At(i, j), 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "writing CSV row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}
