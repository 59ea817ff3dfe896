package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factivity_trainer/model"
)

// quadratic bowl: loss = x^2, grad = 2x
func fillGrad(p *model.Parameter) {
	for i := range p.Data {
		p.Grad[i] = 2 * p.Data[i]
	}
}

func TestSGDDescendsQuadratic(t *testing.T) {
	p := model.NewParameter("w", 2)
	p.Data[0], p.Data[1] = 4, -3
	opt := NewSGD([]*model.Parameter{p}, &SGDConfig{LR: 0.1})

	for i := 0; i < 50; i++ {
		opt.ZeroGrad()
		fillGrad(p)
		opt.Step()
	}
	assert.InDelta(t, 0, p.Data[0], 1e-3)
	assert.InDelta(t, 0, p.Data[1], 1e-3)
}

func TestAdamDescendsQuadratic(t *testing.T) {
	p := model.NewParameter("w", 1)
	p.Data[0] = 2
	opt := NewAdam([]*model.Parameter{p}, &AdamConfig{LR: 0.05})

	for i := 0; i < 400; i++ {
		opt.ZeroGrad()
		fillGrad(p)
		opt.Step()
	}
	assert.InDelta(t, 0, p.Data[0], 1e-2)
}

func TestWeightDecayShrinksParams(t *testing.T) {
	// zero gradient, pure decay
	p := model.NewParameter("w", 1)
	p.Data[0] = 1
	opt := NewSGD([]*model.Parameter{p}, &SGDConfig{LR: 0.1, WeightDecay: 0.5})

	opt.ZeroGrad()
	opt.Step()
	assert.InDelta(t, 1-0.1*0.5, p.Data[0], 1e-12)
}

func TestZeroGrad(t *testing.T) {
	p := model.NewParameter("w", 3)
	for i := range p.Grad {
		p.Grad[i] = 7
	}
	opt := NewAdam([]*model.Parameter{p}, nil)
	opt.ZeroGrad()
	for _, g := range p.Grad {
		require.Zero(t, g)
	}
}

func TestAdamDefaults(t *testing.T) {
	p := model.NewParameter("w", 1)
	p.Data[0] = 1
	p.Grad[0] = 1
	opt := NewAdam([]*model.Parameter{p}, nil)
	opt.Step()
	// first Adam step moves by ~LR regardless of gradient scale
	assert.InDelta(t, 1-1e-3, p.Data[0], 1e-6)
}
