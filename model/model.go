package model

import "fmt"

// Model is the contract the training harness drives. An implementation
// scores one target span per example: Forward takes a batch of token
// sequences and the span descriptors locating the target inside each
// sequence, and returns one prediction per example.
//
// The model owns everything behind its outputs, including whatever
// bookkeeping it needs to turn output gradients into parameter
// gradients. Backward receives dLoss/dPrediction for the most recent
// Forward call made in training mode and accumulates into the
// parameters' Grad buffers; the harness then steps the optimizer.
type Model interface {
	Forward(words [][]string, spans [][]int) ([]float64, error)
	Backward(outputGrad []float64) error

	// SetTraining toggles training mode. In eval mode the model may
	// disable stochastic layers and skip recording state for Backward.
	SetTraining(on bool)

	Parameters() []*Parameter
	StateDict() StateDict
	LoadStateDict(sd StateDict) error
}

// Parameter is a named, flat slice of trainable values with a
// same-length gradient buffer.
type Parameter struct {
	Name string
	Data []float64
	Grad []float64
}

// NewParameter allocates a zero-initialized parameter of size n.
func NewParameter(name string, n int) *Parameter {
	return &Parameter{
		Name: name,
		Data: make([]float64, n),
		Grad: make([]float64, n),
	}
}

// ZeroGrad clears the gradient buffer in place.
func (p *Parameter) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// StateDict is the serialized parameter state of a model, keyed by
// parameter name. It is the unit of checkpoint persistence.
type StateDict map[string][]float64

// StateDictOf collects the current values of params into a StateDict.
// Values are copied; mutating the model afterwards does not change the
// returned dict.
func StateDictOf(params []*Parameter) StateDict {
	sd := make(StateDict, len(params))
	for _, p := range params {
		data := make([]float64, len(p.Data))
		copy(data, p.Data)
		sd[p.Name] = data
	}
	return sd
}

// LoadInto writes sd back into params. Every parameter must be present
// in sd with a matching length.
func (sd StateDict) LoadInto(params []*Parameter) error {
	for _, p := range params {
		data, ok := sd[p.Name]
		if !ok {
			return fmt.Errorf("state dict is missing parameter %q", p.Name)
		}
		if len(data) != len(p.Data) {
			return fmt.Errorf("state dict parameter %q has %d values, model expects %d", p.Name, len(data), len(p.Data))
		}
		copy(p.Data, data)
	}
	return nil
}
