package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"factivity_trainer/utils/slicesx"
)

// Example is one labeled input: an ordered token sequence and the
// span positions locating the target word inside it. Immutable once
// constructed.
type Example struct {
	Words []string `json:"words"`
	Spans []int    `json:"spans"`
}

// Dataset pairs an ordered sequence of examples with index-aligned
// target scores.
type Dataset struct {
	X []Example
	Y []float64
}

// New validates the X/Y alignment invariant and returns a dataset.
func New(x []Example, y []float64) (*Dataset, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("dataset: %d examples but %d targets", len(x), len(y))
	}
	return &Dataset{X: x, Y: y}, nil
}

func (d *Dataset) Len() int {
	return len(d.X)
}

// Words returns the token sequences of examples [i, j).
func (d *Dataset) Words(i, j int) [][]string {
	return slicesx.Map(d.X[i:j], func(e Example, _ int) []string { return e.Words })
}

// Spans returns the span descriptors of examples [i, j).
func (d *Dataset) Spans(i, j int) [][]int {
	return slicesx.Map(d.X[i:j], func(e Example, _ int) []int { return e.Spans })
}

// Targets returns the target scores of examples [i, j).
func (d *Dataset) Targets(i, j int) []float64 {
	return d.Y[i:j]
}

// Shuffle permutes examples and targets together with a seeded
// generator, so a given seed always produces the same order.
func (d *Dataset) Shuffle(seed uint64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(d.X), func(i, j int) {
		d.X[i], d.X[j] = d.X[j], d.X[i]
		d.Y[i], d.Y[j] = d.Y[j], d.Y[i]
	})
}

// Split cuts the dataset at frac (0..1) of its length, returning the
// leading portion as train and the remainder as held-out.
func (d *Dataset) Split(frac float64) (train, dev *Dataset, err error) {
	if frac <= 0 || frac >= 1 {
		return nil, nil, errors.New("dataset: split fraction must be in (0, 1)")
	}
	cut := int(frac * float64(len(d.X)))
	train = &Dataset{X: d.X[:cut], Y: d.Y[:cut]}
	dev = &Dataset{X: d.X[cut:], Y: d.Y[cut:]}
	return train, dev, nil
}

type record struct {
	Words []string `json:"words"`
	Spans []int    `json:"spans"`
	Score float64  `json:"score"`
}

// Load reads a dataset from a JSON file holding an array of
// {words, spans, score} records.
func Load(filePath string) (*Dataset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var records []record
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("dataset: decoding %s: %w", filePath, err)
	}
	d := &Dataset{
		X: make([]Example, len(records)),
		Y: make([]float64, len(records)),
	}
	for i, r := range records {
		d.X[i] = Example{Words: r.Words, Spans: r.Spans}
		d.Y[i] = r.Score
	}
	return d, nil
}

// Save writes the dataset as the JSON record array Load reads.
func (d *Dataset) Save(filePath string) error {
	records := make([]record, len(d.X))
	for i, e := range d.X {
		records[i] = record{Words: e.Words, Spans: e.Spans, Score: d.Y[i]}
	}
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}
