package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"factivity_trainer/checkpoint"
	"factivity_trainer/dataset"
	"factivity_trainer/loss"
	"factivity_trainer/model"
	"factivity_trainer/model/baseline"
	"factivity_trainer/optim"
	"factivity_trainer/trainer"
	"factivity_trainer/utils/jsonx"
)

// cliConfig mirrors the flag surface for -print-config-schema.
type cliConfig struct {
	Data             string  `json:"data"`
	Dev              string  `json:"dev"`
	DevFrac          float64 `json:"dev_frac"`
	Epochs           int     `json:"epochs"`
	BatchSize        int     `json:"batch_size"`
	PredictBatchSize int     `json:"predict_batch_size"`
	LR               float64 `json:"lr"`
	WeightDecay      float64 `json:"weight_decay"`
	Dim              int     `json:"dim"`
	DataName         string  `json:"data_name"`
	PretrainDataName string  `json:"pretrain_data_name"`
	Regularization   string  `json:"regularization"`
	Convergence      bool    `json:"convergence"`
	Out              string  `json:"out"`
	Seed             uint64  `json:"seed"`
}

func main() {
	dataPath := flag.String("data", "", "Path to the training dataset JSON file")
	devPath := flag.String("dev", "", "Path to the held-out dataset JSON file")
	devFrac := flag.Float64("dev-frac", 0.9, "Train fraction when splitting -data because no -dev file is given")
	epochs := flag.Int("epochs", 3, "Number of training epochs")
	batchSize := flag.Int("batch-size", 64, "Training batch size")
	predictBatchSize := flag.Int("predict-batch-size", 128, "Inference batch size")
	lr := flag.Float64("lr", 1e-3, "Adam learning rate")
	weightDecay := flag.Float64("weight-decay", 0, "Optimizer weight decay")
	dim := flag.Int("dim", 256, "Hashed feature dimension of the baseline model")
	dataName := flag.String("data-name", "", "Dataset name embedded in the checkpoint file name")
	pretrainDataName := flag.String("pretrain-data-name", "", "Pretraining dataset name embedded in the checkpoint file name")
	regularization := flag.String("regularization", "", "Regularization kind recorded in the checkpoint file name (l1 or smoothl1)")
	convergence := flag.Bool("convergence", false, "Stop on train-loss convergence instead of dev-set early stopping")
	out := flag.String("out", "", "Checkpoint path prefix (default: the user cache dir)")
	seed := flag.Uint64("seed", 0, "Shuffle the training set with this seed (0 keeps file order)")
	printSchema := flag.Bool("print-config-schema", false, "Print the JSON schema of the config surface and exit")
	flag.Parse()

	if *printSchema {
		s, err := jsonx.SchemaString(&cliConfig{})
		if err != nil {
			log.Fatalf("Error building config schema: %v", err)
		}
		fmt.Println(s)
		return
	}

	if *dataPath == "" || *dataName == "" {
		flag.Usage()
		os.Exit(1)
	}

	data, err := dataset.Load(*dataPath)
	if err != nil {
		log.Fatalf("Error loading training data: %v", err)
	}
	if *seed != 0 {
		data.Shuffle(*seed)
	}

	mode := trainer.ValidationMode
	var dev *dataset.Dataset
	if *convergence {
		mode = trainer.ConvergenceMode
	} else if *devPath != "" {
		dev, err = dataset.Load(*devPath)
		if err != nil {
			log.Fatalf("Error loading dev data: %v", err)
		}
	} else {
		data, dev, err = data.Split(*devFrac)
		if err != nil {
			log.Fatalf("Error splitting dev set: %v", err)
		}
		log.Printf("no -dev file; split %d train / %d dev examples", data.Len(), dev.Len())
	}

	prefix := *out
	if prefix == "" {
		root, err := checkpoint.DefaultRootPath()
		if err != nil {
			log.Fatalf("Error resolving checkpoint dir: %v", err)
		}
		prefix = root + string(os.PathSeparator)
	}

	tr, err := trainer.New(&trainer.Config{
		Epochs:           *epochs,
		TrainBatchSize:   *batchSize,
		PredictBatchSize: *predictBatchSize,
		Mode:             mode,
		FilePath:         prefix,
		DataName:         *dataName,
		PretrainDataName: *pretrainDataName,
		Regularization:   loss.Kind(*regularization),
		WeightDecay:      *weightDecay,
		NewModel: func() (model.Model, error) {
			return baseline.New(&baseline.Options{Dim: *dim}), nil
		},
		NewOptimizer: func(params []*model.Parameter) optim.Optimizer {
			return optim.NewAdam(params, &optim.AdamConfig{LR: *lr, WeightDecay: *weightDecay})
		},
	})
	if err != nil {
		log.Fatalf("Error building trainer: %v", err)
	}

	hist, err := tr.Train(data.X, data.Y, dev, nil)
	if err != nil {
		log.Fatalf("Error training: %v", err)
	}

	fmt.Printf("Recorded %d epochs\n", len(hist.TrainLosses))
	for i, l := range hist.TrainLosses {
		if len(hist.DevRs) > i {
			fmt.Printf("epoch %d: train loss %.6f, dev loss %.6f, pearson r %.4f\n", i+1, l, hist.DevLosses[i], hist.DevRs[i])
		} else {
			fmt.Printf("epoch %d: train loss %.6f\n", i+1, l)
		}
	}
	fmt.Printf("Best model written to %s\n", tr.BestModelFile())
}
