package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Dataset {
	return &Dataset{
		X: []Example{
			{Words: []string{"she", "knows", "it"}, Spans: []int{1}},
			{Words: []string{"he", "hopes", "so"}, Spans: []int{1}},
			{Words: []string{"they", "admit", "defeat"}, Spans: []int{1}},
		},
		Y: []float64{1, 0, 0.8},
	}
}

func TestNewRejectsMisalignedXY(t *testing.T) {
	_, err := New([]Example{{Words: []string{"w"}}}, []float64{1, 2})
	assert.Error(t, err)
}

func TestWordsSpansTargets(t *testing.T) {
	d := sample()
	words := d.Words(1, 3)
	spans := d.Spans(1, 3)
	targets := d.Targets(1, 3)
	require.Len(t, words, 2)
	assert.Equal(t, []string{"he", "hopes", "so"}, words[0])
	assert.Equal(t, []int{1}, spans[1])
	assert.Equal(t, []float64{0, 0.8}, targets)
}

func TestShuffleKeepsAlignmentAndIsSeeded(t *testing.T) {
	a := sample()
	b := sample()
	a.Shuffle(7)
	b.Shuffle(7)
	assert.Equal(t, a.X, b.X)
	assert.Equal(t, a.Y, b.Y)

	// targets still follow their examples
	orig := sample()
	for i, e := range a.X {
		for j, oe := range orig.X {
			if e.Words[1] == oe.Words[1] {
				assert.Equal(t, orig.Y[j], a.Y[i])
			}
		}
	}
}

func TestSplit(t *testing.T) {
	d := sample()
	train, dev, err := d.Split(2.0 / 3.0)
	require.NoError(t, err)
	assert.Equal(t, 2, train.Len())
	assert.Equal(t, 1, dev.Len())

	_, _, err = d.Split(0)
	assert.Error(t, err)
	_, _, err = d.Split(1)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	d := sample()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, d.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, d.X, got.X)
	assert.Equal(t, d.Y, got.Y)
}

func TestLoadMissingAndMalformed(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
