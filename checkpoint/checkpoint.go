package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"factivity_trainer/model"
)

// DefaultRootPath is where CLIs keep checkpoints when no prefix is
// given.
func DefaultRootPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".cache", "factivity_trainer"), nil
}

// BestModelPath builds the deterministic checkpoint path for a
// training configuration. Identical configurations always map to the
// same path, so a rerun overwrites its predecessor's best model.
func BestModelPath(prefix, dataName string, weightDecay float64, pretrainDataName, regularization string) string {
	if pretrainDataName == "" {
		pretrainDataName = "none"
	}
	if regularization == "" {
		regularization = "none"
	}
	name := "wsd_model_" + dataName +
		"_" + strconv.FormatFloat(weightDecay, 'g', -1, 64) +
		"_pre_" + pretrainDataName +
		"_" + regularization + "_.pth"
	return prefix + name
}

// Save writes a model state dict to filePath, replacing any previous
// checkpoint. The write goes to a temp file in the destination
// directory which is fsynced and renamed over the target, so a crash
// mid-write leaves the previous checkpoint intact.
func Save(filePath string, sd model.StateDict) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}
	encoder := json.NewEncoder(tmp)
	if err := encoder.Encode(sd); err != nil {
		cleanup()
		return fmt.Errorf("checkpoint: encoding %s: %w", filePath, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Load reads a state dict previously written by Save.
func Load(filePath string) (model.StateDict, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var sd model.StateDict
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&sd); err != nil {
		return nil, fmt.Errorf("checkpoint: decoding %s: %w", filePath, err)
	}
	return sd, nil
}
