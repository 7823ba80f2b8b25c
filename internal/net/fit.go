package net

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// FitConfig controls a training run.
type FitConfig struct {
	Epochs int
	Rate   float64

	// BatchSize is the number of examples accumulated before each Apply.
	// Zero or a value larger than the dataset means the whole dataset.
	BatchSize int

	Callbacks []Callback
}

// Fit trains the network on the dataset, accumulating gradients over each
// batch and applying them once per batch. It returns the mean example loss
// of the last epoch run.
func (n *Network) Fit(x, y [][]float64, cfg FitConfig) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("dataset has %d samples and %d labels", len(x), len(y))
	}
	if len(x) == 0 {
		return 0, fmt.Errorf("dataset is empty")
	}
	if cfg.Epochs < 1 {
		return 0, fmt.Errorf("epochs must be at least 1, got %d", cfg.Epochs)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 || batchSize > len(x) {
		batchSize = len(x)
	}

	for _, cb := range cfg.Callbacks {
		cb.OnTrainBegin(n)
	}
	defer func() {
		for _, cb := range cfg.Callbacks {
			cb.OnTrainEnd(n)
		}
	}()

	losses := make([]float64, len(x))
	var epochLoss float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for _, cb := range cfg.Callbacks {
			cb.OnEpochBegin(epoch, n)
		}

		for batch, start := 0, 0; start < len(x); batch, start = batch+1, start+batchSize {
			end := min(start+batchSize, len(x))
			for _, cb := range cfg.Callbacks {
				cb.OnBatchBegin(batch, n)
			}

			for i := start; i < end; i++ {
				l, err := n.Train(x[i], y[i])
				if err != nil {
					n.ResetGradients()
					return 0, fmt.Errorf("sample %d: %w", i, err)
				}
				losses[i] = l
			}
			if err := n.Apply(cfg.Rate); err != nil {
				return 0, fmt.Errorf("epoch %d batch %d: %w", epoch, batch, err)
			}

			batchLoss := floats.Sum(losses[start:end]) / float64(end-start)
			for _, cb := range cfg.Callbacks {
				cb.OnBatchEnd(batch, batchLoss, n)
			}
		}

		epochLoss = floats.Sum(losses) / float64(len(losses))
		for _, cb := range cfg.Callbacks {
			cb.OnEpochEnd(epoch, epochLoss, n)
		}
		if shouldStop(cfg.Callbacks) {
			break
		}
	}

	return epochLoss, nil
}

func shouldStop(callbacks []Callback) bool {
	for _, cb := range callbacks {
		if s, ok := cb.(Stopper); ok && s.ShouldStop() {
			return true
		}
	}
	return false
}

// FitDataset checks that d fits the network's layers and then runs Fit on it.
func (n *Network) FitDataset(d *Dataset, cfg FitConfig) (float64, error) {
	if err := d.Check(n); err != nil {
		return 0, err
	}
	return n.Fit(d.Samples, d.Labels, cfg)
}
