package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"factivity_trainer/model"
)

// Optimizer applies accumulated parameter gradients. Implementations
// own any per-parameter state (momentum, moment estimates) and must be
// constructed over the exact parameter slice they will step.
type Optimizer interface {
	// Step updates every parameter from its Grad buffer.
	Step()
	// ZeroGrad clears every parameter's Grad buffer.
	ZeroGrad()
}

// SGDConfig configures plain stochastic gradient descent.
type SGDConfig struct {
	LR          float64 // default 1e-3
	WeightDecay float64
	Momentum    float64
}

type sgd struct {
	params   []*model.Parameter
	cfg      SGDConfig
	velocity [][]float64
}

// NewSGD returns an SGD optimizer over params.
func NewSGD(params []*model.Parameter, config *SGDConfig) Optimizer {
	cfg := SGDConfig{LR: 1e-3}
	if config != nil {
		cfg = *config
		if cfg.LR == 0 {
			cfg.LR = 1e-3
		}
	}
	s := &sgd{params: params, cfg: cfg}
	if cfg.Momentum != 0 {
		s.velocity = make([][]float64, len(params))
		for i, p := range params {
			s.velocity[i] = make([]float64, len(p.Data))
		}
	}
	return s
}

func (s *sgd) Step() {
	for i, p := range s.params {
		grad := p.Grad
		if s.cfg.WeightDecay != 0 {
			grad = make([]float64, len(p.Grad))
			copy(grad, p.Grad)
			floats.AddScaled(grad, s.cfg.WeightDecay, p.Data)
		}
		if s.velocity != nil {
			v := s.velocity[i]
			floats.Scale(s.cfg.Momentum, v)
			floats.Add(v, grad)
			grad = v
		}
		floats.AddScaled(p.Data, -s.cfg.LR, grad)
	}
}

func (s *sgd) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// AdamConfig configures the Adam optimizer. Zero-valued fields take
// the usual defaults: LR 1e-3, Beta1 0.9, Beta2 0.999, Epsilon 1e-8.
type AdamConfig struct {
	LR          float64
	Beta1       float64
	Beta2       float64
	Epsilon     float64
	WeightDecay float64
}

type adam struct {
	params []*model.Parameter
	cfg    AdamConfig
	m, v   [][]float64
	t      int
}

// NewAdam returns an Adam optimizer over params.
func NewAdam(params []*model.Parameter, config *AdamConfig) Optimizer {
	cfg := AdamConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.LR == 0 {
		cfg.LR = 1e-3
	}
	if cfg.Beta1 == 0 {
		cfg.Beta1 = 0.9
	}
	if cfg.Beta2 == 0 {
		cfg.Beta2 = 0.999
	}
	if cfg.Epsilon == 0 {
		cfg.Epsilon = 1e-8
	}
	a := &adam{
		params: params,
		cfg:    cfg,
		m:      make([][]float64, len(params)),
		v:      make([][]float64, len(params)),
	}
	for i, p := range params {
		a.m[i] = make([]float64, len(p.Data))
		a.v[i] = make([]float64, len(p.Data))
	}
	return a
}

func (a *adam) Step() {
	a.t++
	c1 := 1 - math.Pow(a.cfg.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.cfg.Beta2, float64(a.t))
	for i, p := range a.params {
		m, v := a.m[i], a.v[i]
		for k := range p.Data {
			g := p.Grad[k]
			if a.cfg.WeightDecay != 0 {
				g += a.cfg.WeightDecay * p.Data[k]
			}
			m[k] = a.cfg.Beta1*m[k] + (1-a.cfg.Beta1)*g
			v[k] = a.cfg.Beta2*v[k] + (1-a.cfg.Beta2)*g*g
			mHat := m[k] / c1
			vHat := v[k] / c2
			p.Data[k] -= a.cfg.LR * mHat / (math.Sqrt(vHat) + a.cfg.Epsilon)
		}
	}
}

func (a *adam) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}
