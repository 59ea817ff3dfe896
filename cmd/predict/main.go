package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gonum.org/v1/gonum/stat"

	"factivity_trainer/checkpoint"
	"factivity_trainer/dataset"
	"factivity_trainer/loss"
	"factivity_trainer/model"
	"factivity_trainer/model/baseline"
	"factivity_trainer/trainer"
)

func main() {
	dataPath := flag.String("data", "", "Path to the dataset JSON file to score")
	checkpointPath := flag.String("checkpoint", "", "Path to the checkpoint written by cmd/train")
	dim := flag.Int("dim", 256, "Hashed feature dimension of the baseline model (must match training)")
	predictBatchSize := flag.Int("predict-batch-size", 128, "Inference batch size")
	lossKind := flag.String("loss", "", "Evaluation loss: empty for smooth-L1, 'l1' for mean absolute error")
	flag.Parse()

	if *dataPath == "" || *checkpointPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	data, err := dataset.Load(*dataPath)
	if err != nil {
		log.Fatalf("Error loading data: %v", err)
	}

	sd, err := checkpoint.Load(*checkpointPath)
	if err != nil {
		log.Fatalf("Error loading checkpoint: %v", err)
	}
	m := baseline.New(&baseline.Options{Dim: *dim})
	if err := m.LoadStateDict(sd); err != nil {
		log.Fatalf("Error restoring model state: %v", err)
	}

	tr, err := trainer.New(&trainer.Config{
		PredictBatchSize: *predictBatchSize,
		DataName:         "predict",
		NewModel:         func() (model.Model, error) { return m, nil },
	})
	if err != nil {
		log.Fatalf("Error building trainer: %v", err)
	}
	tr.SetModel(m)

	meanLoss, preds, err := tr.Predict(data, &trainer.PredictOptions{LossKind: loss.Kind(*lossKind)})
	if err != nil {
		log.Fatalf("Error predicting: %v", err)
	}

	r := stat.Correlation(preds, data.Y, nil)
	fmt.Printf("examples: %d\n", data.Len())
	fmt.Printf("mean batch loss: %.6f\n", meanLoss)
	fmt.Printf("pearson r: %.4f\n", r)
}
