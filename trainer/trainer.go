package trainer

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/stat"

	"factivity_trainer/batch"
	"factivity_trainer/checkpoint"
	"factivity_trainer/dataset"
	"factivity_trainer/loss"
	"factivity_trainer/model"
	"factivity_trainer/optim"
)

// Mode selects the stopping policy for Train.
type Mode int

const (
	// ValidationMode evaluates a held-out set every epoch, selects the
	// best checkpoint by Pearson correlation, and stops after three
	// consecutive epochs without a correlation improvement.
	ValidationMode Mode = iota
	// ConvergenceMode uses the training loss itself as the signal:
	// best checkpoint by train loss, stop once the epoch-over-epoch
	// loss delta falls below the convergence threshold.
	ConvergenceMode
)

// convergenceDelta is the train-loss stabilization threshold for
// ConvergenceMode.
const convergenceDelta = 1e-4

// earlyStopPatience is the number of consecutive non-improving dev
// epochs tolerated in ValidationMode.
const earlyStopPatience = 3

// Config enumerates every training option. Zero values take the
// documented defaults.
type Config struct {
	Epochs           int // default 3
	TrainBatchSize   int // default 64
	PredictBatchSize int // default 128
	Mode             Mode

	// Checkpoint path components; see checkpoint.BestModelPath.
	FilePath         string
	DataName         string
	PretrainDataName string

	// Pretraining gates whether the pretrain batch passed to Train is
	// handed to the loss evaluator. The evaluator ignores it unless an
	// Aux hook is installed via Loss.
	Pretraining bool

	// Regularization is recorded in the checkpoint file name. It is
	// not folded into the training loss; install an Aux hook to
	// activate a penalty term.
	Regularization loss.Kind

	WeightDecay float64

	// NewModel constructs the model. Train calls it once per
	// invocation, so repeated Train calls never share parameters.
	NewModel func() (model.Model, error)

	// NewOptimizer builds the optimizer over the model's parameters.
	// Default: Adam with the configured weight decay.
	NewOptimizer func(params []*model.Parameter) optim.Optimizer

	// Loss configures the evaluator beyond its kind (Aux hook).
	Loss *loss.Options
}

// History holds the per-epoch metric trails Train returns. DevLosses
// and DevRs stay empty in ConvergenceMode.
type History struct {
	TrainLosses []float64
	DevLosses   []float64
	DevRs       []float64
}

// Trainer owns the model lifecycle: Train builds a fresh model, runs
// the epoch loop, and persists the best parameter state; Predict and
// PredictGrad run the current model in inference.
type Trainer struct {
	cfg           Config
	evaluator     *loss.Evaluator
	l1            *loss.Evaluator
	bestModelFile string

	model model.Model
}

// New validates config and returns a Trainer.
func New(config *Config) (*Trainer, error) {
	if config == nil || config.NewModel == nil {
		return nil, errors.New("trainer: config with a NewModel factory is required")
	}
	cfg := *config
	if cfg.Epochs <= 0 {
		cfg.Epochs = 3
	}
	if cfg.TrainBatchSize <= 0 {
		cfg.TrainBatchSize = 64
	}
	if cfg.PredictBatchSize <= 0 {
		cfg.PredictBatchSize = 128
	}
	if cfg.NewOptimizer == nil {
		wd := cfg.WeightDecay
		cfg.NewOptimizer = func(params []*model.Parameter) optim.Optimizer {
			return optim.NewAdam(params, &optim.AdamConfig{WeightDecay: wd})
		}
	}
	evaluator, err := loss.New(loss.SmoothL1, cfg.Loss)
	if err != nil {
		return nil, err
	}
	l1, err := loss.New(loss.L1, cfg.Loss)
	if err != nil {
		return nil, err
	}
	return &Trainer{
		cfg:       cfg,
		evaluator: evaluator,
		l1:        l1,
		bestModelFile: checkpoint.BestModelPath(
			cfg.FilePath, cfg.DataName, cfg.WeightDecay,
			cfg.PretrainDataName, string(cfg.Regularization)),
	}, nil
}

// BestModelFile is the deterministic checkpoint path this trainer
// writes its best model to.
func (t *Trainer) BestModelFile() string {
	return t.bestModelFile
}

// Model returns the model from the most recent Train, LoadBestModel,
// or SetModel call, or nil.
func (t *Trainer) Model() model.Model {
	return t.model
}

// SetModel installs an externally constructed model for inference,
// bypassing the factory. Train still builds its own fresh model.
func (t *Trainer) SetModel(m model.Model) {
	t.model = m
}

// Train runs the epoch loop over (trainX, trainY). dev is the held-out
// set for ValidationMode and may be nil in ConvergenceMode. pre is the
// auxiliary pretraining batch, forwarded to the loss evaluator only
// when Config.Pretraining is set.
//
// A fresh model is constructed on every call; nothing carries over
// from previous invocations. The returned history holds per-epoch
// train losses and, in ValidationMode, dev losses and correlations.
func (t *Trainer) Train(trainX []dataset.Example, trainY []float64, dev *dataset.Dataset, pre *loss.PretrainBatch) (*History, error) {
	data, err := dataset.New(trainX, trainY)
	if err != nil {
		return nil, err
	}
	if data.Len() == 0 {
		return nil, errors.New("trainer: empty training set")
	}
	if t.cfg.Mode == ValidationMode {
		if dev == nil || dev.Len() == 0 {
			return nil, errors.New("trainer: ValidationMode requires a non-empty dev set")
		}
	}

	m, err := t.cfg.NewModel()
	if err != nil {
		return nil, fmt.Errorf("trainer: constructing model: %w", err)
	}
	t.model = m
	optimizer := t.cfg.NewOptimizer(m.Parameters())

	var pretrain *loss.PretrainBatch
	if t.cfg.Pretraining {
		pretrain = pre
	}

	total := data.Len()
	bestLoss := math.Inf(1)
	bestR := math.Inf(-1)
	badCount := 0
	hist := &History{}

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		m.SetTraining(true)
		var batchLosses []float64
		for it := batch.New(total, t.cfg.TrainBatchSize); it.Next(); {
			r := it.Range().Clip(total)
			optimizer.ZeroGrad()
			out, err := m.Forward(data.Words(r.Start, r.End), data.Spans(r.Start, r.End))
			if err != nil {
				return nil, fmt.Errorf("trainer: epoch %d forward: %w", epoch+1, err)
			}
			value, grad, err := t.evaluator.ValueGrad(out, data.Targets(r.Start, r.End), pretrain)
			if err != nil {
				return nil, fmt.Errorf("trainer: epoch %d loss: %w", epoch+1, err)
			}
			batchLosses = append(batchLosses, value)
			if err := m.Backward(grad); err != nil {
				return nil, fmt.Errorf("trainer: epoch %d backward: %w", epoch+1, err)
			}
			optimizer.Step()
		}
		currTrainLoss := stat.Mean(batchLosses, nil)
		log.Printf("epoch %d: mean train loss across batches: %g", epoch+1, currTrainLoss)

		if t.cfg.Mode == ConvergenceMode {
			if currTrainLoss < bestLoss {
				if err := t.saveBest(m); err != nil {
					return nil, err
				}
				bestLoss = currTrainLoss
			}
			if epoch > 0 && math.Abs(currTrainLoss-hist.TrainLosses[len(hist.TrainLosses)-1]) < convergenceDelta {
				break
			}
			hist.TrainLosses = append(hist.TrainLosses, currTrainLoss)
			continue
		}

		currDevLoss, currDevPreds, err := t.Predict(dev, &PredictOptions{Pretrain: pretrain})
		if err != nil {
			return nil, fmt.Errorf("trainer: epoch %d dev predict: %w", epoch+1, err)
		}
		currDevR := stat.Correlation(currDevPreds, dev.Y, nil)
		log.Printf("epoch %d: mean dev loss across batches: %g, pearson r: %g", epoch+1, currDevLoss, currDevR)

		if currDevR > bestR {
			if err := t.saveBest(m); err != nil {
				return nil, err
			}
			bestR = currDevR
		}
		if epoch > 0 {
			if currDevR < hist.DevRs[len(hist.DevRs)-1] {
				badCount++
			} else {
				badCount = 0
			}
		}
		hist.DevRs = append(hist.DevRs, currDevR)
		hist.DevLosses = append(hist.DevLosses, currDevLoss)
		hist.TrainLosses = append(hist.TrainLosses, currTrainLoss)
		if badCount >= earlyStopPatience {
			break
		}
	}
	return hist, nil
}

func (t *Trainer) saveBest(m model.Model) error {
	if err := checkpoint.Save(t.bestModelFile, m.StateDict()); err != nil {
		return fmt.Errorf("trainer: writing checkpoint: %w", err)
	}
	return nil
}

// PredictOptions adjusts a Predict call.
type PredictOptions struct {
	// LossKind switches the per-batch loss; empty means the default
	// smooth-L1, loss.L1 selects mean absolute error.
	LossKind loss.Kind
	// Pretrain is forwarded to the loss evaluator when
	// Config.Pretraining is set.
	Pretrain *loss.PretrainBatch
}

// Predict runs the model over data in evaluation mode and returns the
// unweighted mean of the per-batch losses plus one prediction per
// example, aligned to input order.
//
// The mean is over batches, not examples: a short trailing batch
// counts the same as a full one, so its examples are implicitly
// down-weighted.
func (t *Trainer) Predict(data *dataset.Dataset, options *PredictOptions) (float64, []float64, error) {
	if t.model == nil {
		return 0, nil, errors.New("trainer: no model; call Train or LoadBestModel first")
	}
	kind := loss.Kind("")
	var pretrain *loss.PretrainBatch
	if options != nil {
		kind = options.LossKind
		if t.cfg.Pretraining {
			pretrain = options.Pretrain
		}
	}

	t.model.SetTraining(false)
	total := data.Len()
	yhat := make([]float64, total)
	var batchLosses []float64
	for it := batch.New(total, t.cfg.PredictBatchSize); it.Next(); {
		r := it.Range().Clip(total)
		out, err := t.model.Forward(data.Words(r.Start, r.End), data.Spans(r.Start, r.End))
		if err != nil {
			return 0, nil, fmt.Errorf("trainer: predict forward: %w", err)
		}
		copy(yhat[r.Start:r.End], out)

		evaluator := t.evaluator
		if kind == loss.L1 {
			evaluator = t.l1
		}
		value, err := evaluator.Value(out, data.Targets(r.Start, r.End), pretrain)
		if err != nil {
			return 0, nil, fmt.Errorf("trainer: predict loss: %w", err)
		}
		batchLosses = append(batchLosses, value)
	}
	if len(batchLosses) == 0 {
		return 0, yhat, nil
	}
	return stat.Mean(batchLosses, nil), yhat, nil
}

// PredictGrad runs the model over x without toggling it out of
// training mode, so the model's backward state survives and a caller
// may push gradients through the assembled predictions. No loss is
// computed.
func (t *Trainer) PredictGrad(x []dataset.Example) ([]float64, error) {
	if t.model == nil {
		return nil, errors.New("trainer: no model; call Train or LoadBestModel first")
	}
	data := &dataset.Dataset{X: x, Y: make([]float64, len(x))}
	total := data.Len()
	yhat := make([]float64, total)
	for it := batch.New(total, t.cfg.PredictBatchSize); it.Next(); {
		r := it.Range().Clip(total)
		out, err := t.model.Forward(data.Words(r.Start, r.End), data.Spans(r.Start, r.End))
		if err != nil {
			return nil, fmt.Errorf("trainer: predict forward: %w", err)
		}
		copy(yhat[r.Start:r.End], out)
	}
	return yhat, nil
}

// LoadBestModel constructs a fresh model and restores the parameter
// state from this trainer's checkpoint file.
func (t *Trainer) LoadBestModel() error {
	sd, err := checkpoint.Load(t.bestModelFile)
	if err != nil {
		return err
	}
	m, err := t.cfg.NewModel()
	if err != nil {
		return fmt.Errorf("trainer: constructing model: %w", err)
	}
	if err := m.LoadStateDict(sd); err != nil {
		return err
	}
	t.model = m
	return nil
}
