package baseline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factivity_trainer/model"
)

var _ model.Model = (*BagOfTokens)(nil)

var (
	words = [][]string{
		{"she", "knows", "the", "answer"},
		{"he", "doubts", "the", "story"},
	}
	spans = [][]int{{1}, {1}}
)

func TestForwardShape(t *testing.T) {
	m := New(nil)
	out, err := m.Forward(words, spans)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestForwardDeterministic(t *testing.T) {
	m := New(&Options{Dim: 64})
	a, err := m.Forward(words, spans)
	require.NoError(t, err)
	b, err := m.Forward(words, spans)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestForwardMismatchedBatch(t *testing.T) {
	m := New(nil)
	_, err := m.Forward(words, [][]int{{1}})
	assert.Error(t, err)
}

func TestBackwardAccumulatesGrads(t *testing.T) {
	m := New(&Options{Dim: 32})
	m.SetTraining(true)
	_, err := m.Forward(words, spans)
	require.NoError(t, err)
	require.NoError(t, m.Backward([]float64{1, -1}))

	params := m.Parameters()
	w, b := params[0], params[1]
	nonZero := false
	for _, g := range w.Grad {
		if g != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero)
	assert.InDelta(t, 0, b.Grad[0], 1e-12) // grads 1 and -1 cancel in the bias
}

func TestBackwardRequiresTrainingForward(t *testing.T) {
	m := New(nil)
	m.SetTraining(false)
	_, err := m.Forward(words, spans)
	require.NoError(t, err)
	assert.Error(t, m.Backward([]float64{0, 0}))
}

func TestStateDictRoundTrip(t *testing.T) {
	m := New(&Options{Dim: 16})
	m.Parameters()[0].Data[3] = 1.5
	m.Parameters()[1].Data[0] = -0.25
	sd := m.StateDict()

	m2 := New(&Options{Dim: 16})
	require.NoError(t, m2.LoadStateDict(sd))
	assert.Equal(t, m.Parameters()[0].Data, m2.Parameters()[0].Data)
	assert.Equal(t, m.Parameters()[1].Data, m2.Parameters()[1].Data)

	// mismatched dims refuse to load
	m3 := New(&Options{Dim: 8})
	assert.Error(t, m3.LoadStateDict(sd))
}

func TestSpanTokensDominate(t *testing.T) {
	m := New(&Options{Dim: 64})
	// same sentence, different target word: features must differ
	a := m.features([]string{"he", "knows", "it"}, []int{1})
	b := m.features([]string{"he", "knows", "it"}, []int{2})
	assert.NotEqual(t, a, b)
}
