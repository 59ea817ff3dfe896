package baseline

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/tiktoken-go/tokenizer/codec"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"factivity_trainer/model"
)

var tok = codec.NewCl100kBase()

// spanWeight is the extra feature mass given to tokens inside the
// target span, so the scored word dominates its context.
const spanWeight = 2.0

const defaultDim = 256

// BagOfTokens is a linear regressor over hashed token-id features. It
// is the reference implementation of the model contract the training
// harness drives: good enough to fit real signal in tests and CLIs,
// with none of the contextual-embedding machinery a production model
// brings.
type BagOfTokens struct {
	dim      int
	w        *model.Parameter
	b        *model.Parameter
	training bool

	// feature tape from the last Forward in training mode
	feats [][]float64
}

// Options configures a BagOfTokens model.
type Options struct {
	// Dim is the hashed feature dimension. Default 256.
	Dim int
}

// New returns a zero-initialized BagOfTokens model.
func New(options *Options) *BagOfTokens {
	dim := defaultDim
	if options != nil && options.Dim > 0 {
		dim = options.Dim
	}
	return &BagOfTokens{
		dim: dim,
		w:   model.NewParameter("w", dim),
		b:   model.NewParameter("b", 1),
	}
}

func hashWord(word string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(word))
	return h.Sum32()
}

// features hashes each word's token ids into the feature vector,
// upweighting words inside the span.
func (m *BagOfTokens) features(words []string, spans []int) []float64 {
	inSpan := make(map[int]struct{}, len(spans))
	for _, pos := range spans {
		inSpan[pos] = struct{}{}
	}
	x := make([]float64, m.dim)
	total := 0.0
	for pos, word := range words {
		weight := 1.0
		if _, ok := inSpan[pos]; ok {
			weight += spanWeight
		}
		ids, _, err := tok.Encode(word)
		if err != nil || len(ids) == 0 {
			x[int(hashWord(word))%m.dim] += weight
			total += weight
			continue
		}
		for _, id := range ids {
			x[int(id)%m.dim] += weight
			total += weight
		}
	}
	if total > 0 {
		floats.Scale(1/total, x)
	}
	return x
}

func (m *BagOfTokens) Forward(words [][]string, spans [][]int) ([]float64, error) {
	if len(words) != len(spans) {
		return nil, fmt.Errorf("baseline: %d word sequences but %d span lists", len(words), len(spans))
	}
	wVec := mat.NewVecDense(m.dim, m.w.Data)
	out := make([]float64, len(words))
	var tape [][]float64
	if m.training {
		tape = make([][]float64, len(words))
	}
	for i := range words {
		x := m.features(words[i], spans[i])
		out[i] = mat.Dot(wVec, mat.NewVecDense(m.dim, x)) + m.b.Data[0]
		if m.training {
			tape[i] = x
		}
	}
	if m.training {
		m.feats = tape
	}
	return out, nil
}

func (m *BagOfTokens) Backward(outputGrad []float64) error {
	if m.feats == nil {
		return errors.New("baseline: Backward without a training-mode Forward")
	}
	if len(outputGrad) != len(m.feats) {
		return fmt.Errorf("baseline: %d output gradients for a forward batch of %d", len(outputGrad), len(m.feats))
	}
	for i, g := range outputGrad {
		floats.AddScaled(m.w.Grad, g, m.feats[i])
		m.b.Grad[0] += g
	}
	m.feats = nil
	return nil
}

func (m *BagOfTokens) SetTraining(on bool) {
	m.training = on
	if !on {
		m.feats = nil
	}
}

func (m *BagOfTokens) Parameters() []*model.Parameter {
	return []*model.Parameter{m.w, m.b}
}

func (m *BagOfTokens) StateDict() model.StateDict {
	return model.StateDictOf(m.Parameters())
}

func (m *BagOfTokens) LoadStateDict(sd model.StateDict) error {
	return sd.LoadInto(m.Parameters())
}
