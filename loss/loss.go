package loss

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"factivity_trainer/dataset"
)

// Kind selects the pointwise loss.
type Kind string

const (
	// SmoothL1 is the Huber-style default training loss: quadratic
	// inside the unit interval, linear outside.
	SmoothL1 Kind = "smoothl1"
	// L1 is mean absolute error, used as an evaluation-only variant.
	L1 Kind = "l1"
)

// PretrainBatch carries the auxiliary pretraining examples and targets
// that Train threads through to the loss. The evaluator accepts them
// on every call but folds nothing into the returned scalar unless an
// Aux hook is installed.
type PretrainBatch struct {
	X []dataset.Example
	Y []float64
}

// AuxFunc is the opt-in extension point for blending an auxiliary
// pretraining term into the loss value. The returned value is added to
// the scalar loss; it contributes nothing to the gradient with respect
// to the current batch's predictions.
type AuxFunc func(pre *PretrainBatch) float64

// Evaluator computes scalar losses and their gradients with respect to
// the predictions. All reductions are means over the batch, so two
// calls with identical inputs always produce identical scalars.
type Evaluator struct {
	kind Kind
	aux  AuxFunc
}

// Options configures an Evaluator beyond its loss kind.
type Options struct {
	// Aux, when non-nil, is added to every loss value. Nil by default:
	// pretraining inputs are accepted and ignored.
	Aux AuxFunc
}

// New returns an evaluator for kind. An empty kind means SmoothL1.
func New(kind Kind, options *Options) (*Evaluator, error) {
	if kind == "" {
		kind = SmoothL1
	}
	if kind != SmoothL1 && kind != L1 {
		return nil, fmt.Errorf("loss: unknown kind %q", kind)
	}
	e := &Evaluator{kind: kind}
	if options != nil {
		e.aux = options.Aux
	}
	return e, nil
}

// Kind returns the evaluator's loss kind.
func (e *Evaluator) Kind() Kind {
	return e.kind
}

func checkLengths(predicted, actual []float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("loss: %d predictions but %d targets", len(predicted), len(actual))
	}
	if len(predicted) == 0 {
		return fmt.Errorf("loss: empty batch")
	}
	return nil
}

// Value computes the scalar loss between predicted and actual.
func (e *Evaluator) Value(predicted, actual []float64, pre *PretrainBatch) (float64, error) {
	v, _, err := e.eval(predicted, actual, pre, false)
	return v, err
}

// ValueGrad computes the scalar loss and its gradient with respect to
// each prediction.
func (e *Evaluator) ValueGrad(predicted, actual []float64, pre *PretrainBatch) (float64, []float64, error) {
	return e.eval(predicted, actual, pre, true)
}

func (e *Evaluator) eval(predicted, actual []float64, pre *PretrainBatch, wantGrad bool) (float64, []float64, error) {
	if err := checkLengths(predicted, actual); err != nil {
		return 0, nil, err
	}
	n := float64(len(predicted))
	diff := make([]float64, len(predicted))
	floats.SubTo(diff, predicted, actual)

	var grad []float64
	if wantGrad {
		grad = make([]float64, len(diff))
	}
	total := 0.0
	for i, d := range diff {
		switch e.kind {
		case L1:
			total += math.Abs(d)
			if wantGrad {
				grad[i] = sign(d) / n
			}
		default: // SmoothL1
			if math.Abs(d) < 1 {
				total += 0.5 * d * d
				if wantGrad {
					grad[i] = d / n
				}
			} else {
				total += math.Abs(d) - 0.5
				if wantGrad {
					grad[i] = sign(d) / n
				}
			}
		}
	}
	value := total / n
	if e.aux != nil && pre != nil {
		value += e.aux(pre)
	}
	return value, grad, nil
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
