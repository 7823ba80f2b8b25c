package net

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Dataset holds training examples: Samples feed the input layer and Labels
// are the matching targets for the output layer.
type Dataset struct {
	Samples [][]float64
	Labels  [][]float64
}

// LoadCSV reads a dataset from a CSV file. Columns listed in labelCols become
// the label vector in that order; every other column is a feature in file
// order. hasHeader skips the first row.
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	d := &Dataset{}
	var isLabel []bool
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if row == 0 && hasHeader {
			continue
		}

		if isLabel == nil {
			if isLabel, err = labelMask(len(record), labelCols); err != nil {
				return nil, err
			}
		}
		sample, label, err := splitRecord(record, isLabel, labelCols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		d.Samples = append(d.Samples, sample)
		d.Labels = append(d.Labels, label)
	}

	if len(d.Samples) == 0 {
		return nil, fmt.Errorf("csv file has no data rows")
	}
	return d, nil
}

func labelMask(numCols int, labelCols []int) ([]bool, error) {
	mask := make([]bool, numCols)
	for _, col := range labelCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("label column %d out of range, file has %d columns", col, numCols)
		}
		mask[col] = true
	}
	return mask, nil
}

func splitRecord(record []string, isLabel []bool, labelCols []int) (sample, label []float64, err error) {
	values := make([]float64, len(record))
	for j, s := range record {
		if values[j], err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return nil, nil, fmt.Errorf("col %d: %w", j, err)
		}
	}

	sample = make([]float64, 0, len(record)-len(labelCols))
	for j, v := range values {
		if !isLabel[j] {
			sample = append(sample, v)
		}
	}
	label = make([]float64, len(labelCols))
	for i, col := range labelCols {
		label[i] = values[col]
	}
	return sample, label, nil
}

// Check verifies that every sample fits the network's input layer and every
// label its output layer.
func (d *Dataset) Check(n *Network) error {
	if len(d.Samples) != len(d.Labels) {
		return fmt.Errorf("dataset has %d samples and %d labels", len(d.Samples), len(d.Labels))
	}
	for i := range d.Samples {
		if len(d.Samples[i]) != n.InputCount() {
			return fmt.Errorf("%w: sample %d has %d features, network has %d inputs",
				ErrInputSizeMismatch, i, len(d.Samples[i]), n.InputCount())
		}
		if len(d.Labels[i]) != n.OutputCount() {
			return fmt.Errorf("%w: sample %d has %d labels, network has %d outputs",
				ErrOutputSizeMismatch, i, len(d.Labels[i]), n.OutputCount())
		}
	}
	return nil
}

// Split returns the first ratio of the rows and the rest.
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset) {
	idx := int(float64(len(d.Samples)) * ratio)
	idx = max(0, min(idx, len(d.Samples)))
	return &Dataset{Samples: d.Samples[:idx], Labels: d.Labels[:idx]},
		&Dataset{Samples: d.Samples[idx:], Labels: d.Labels[idx:]}
}

// Normalize min-max scales the samples in place and returns the scaler, so
// the same statistics can be applied to data seen later. Rows of unequal
// width are left unscaled; Check reports them.
func (d *Dataset) Normalize() *Scaler {
	s := FitScaler(d.Samples)
	if s != nil {
		_ = s.Transform(d)
	}
	return s
}

// Scaler holds per-feature minimum and maximum values for min-max scaling.
type Scaler struct {
	Min []float64
	Max []float64
}

// FitScaler computes the per-feature range of samples. It returns nil for no samples.
func FitScaler(samples [][]float64) *Scaler {
	if len(samples) == 0 {
		return nil
	}
	s := &Scaler{
		Min: append([]float64(nil), samples[0]...),
		Max: append([]float64(nil), samples[0]...),
	}
	for _, sample := range samples[1:] {
		for i := range min(len(sample), len(s.Min)) {
			s.Min[i] = min(s.Min[i], sample[i])
			s.Max[i] = max(s.Max[i], sample[i])
		}
	}
	return s
}

// Transform scales every sample of d to [0, 1] using the fitted range.
// Constant features map to 0. Values outside the fitted range fall outside [0, 1].
func (s *Scaler) Transform(d *Dataset) error {
	for i, sample := range d.Samples {
		if len(sample) != len(s.Min) {
			return fmt.Errorf("%w: sample %d has %d features, scaler has %d",
				ErrInputSizeMismatch, i, len(sample), len(s.Min))
		}
	}
	for _, sample := range d.Samples {
		for i := range sample {
			if diff := s.Max[i] - s.Min[i]; diff != 0 {
				sample[i] = (sample[i] - s.Min[i]) / diff
			} else {
				sample[i] = 0
			}
		}
	}
	return nil
}

// Encode writes the scaler as two weight-style lines, minimums then maximums.
func (s *Scaler) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, row := range [][]float64{s.Min, s.Max} {
		for _, v := range row {
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			bw.WriteByte(';')
		}
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "failed to write scaler")
}

// DecodeScaler reads a scaler written by Encode.
func DecodeScaler(r io.Reader) (*Scaler, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scaler")
	}
	lines := strings.Split(strings.TrimSuffix(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), "\n")
	if len(lines) != 2 {
		return nil, errors.Wrapf(ErrFormat, "scaler needs 2 lines, found %d", len(lines))
	}

	rows := make([][]float64, 2)
	for i, line := range lines {
		if !strings.HasSuffix(line, ";") {
			return nil, errors.Wrapf(ErrFormat, "line %d: scaler line must end with ';'", i+1)
		}
		for _, f := range strings.Split(strings.TrimSuffix(line, ";"), ";") {
			v, err := parseFloat(f, i+1)
			if err != nil {
				return nil, err
			}
			rows[i] = append(rows[i], v)
		}
	}
	if len(rows[0]) != len(rows[1]) {
		return nil, errors.Wrapf(ErrFormat, "scaler has %d minimums and %d maximums", len(rows[0]), len(rows[1]))
	}
	return &Scaler{Min: rows[0], Max: rows[1]}, nil
}

// Save writes the scaler to a file.
func (s *Scaler) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := s.Encode(file); err != nil {
		return err
	}
	return file.Close()
}

// LoadScaler reads a scaler from a file.
func LoadScaler(filename string) (*Scaler, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	s, err := DecodeScaler(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return s, nil
}
