package net

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Callback receives Fit's progress. Batch hooks run around each
// accumulate-then-Apply cycle, so OnBatchEnd sees the network right after a
// commit.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(epoch int, loss float64, n *Network)
	OnBatchBegin(batch int, n *Network)
	OnBatchEnd(batch int, loss float64, n *Network)
}

// Stopper is implemented by callbacks that can end Fit after an epoch.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback implements every Callback method as a no-op.
type BaseCallback struct{}

func (BaseCallback) OnTrainBegin(n *Network)                        {}
func (BaseCallback) OnTrainEnd(n *Network)                          {}
func (BaseCallback) OnEpochBegin(epoch int, n *Network)             {}
func (BaseCallback) OnEpochEnd(epoch int, loss float64, n *Network) {}
func (BaseCallback) OnBatchBegin(batch int, n *Network)             {}
func (BaseCallback) OnBatchEnd(batch int, loss float64, n *Network) {}

// EarlyStopping ends training once the epoch loss has failed to drop by more
// than MinDelta for Patience consecutive epochs. With RestoreBest set, the
// parameters of the best epoch are written back into the network on stop.
type EarlyStopping struct {
	BaseCallback
	Patience    int
	MinDelta    float64
	RestoreBest bool

	// Stopped is set once patience runs out. BestEpoch is the epoch whose
	// loss is the current best.
	Stopped   bool
	BestEpoch int

	best       float64
	bestParams []float64
	bad        int
}

func NewEarlyStopping(patience int, minDelta float64) *EarlyStopping {
	return &EarlyStopping{Patience: patience, MinDelta: minDelta, best: math.Inf(1)}
}

// OnTrainBegin clears state left by an earlier run.
func (c *EarlyStopping) OnTrainBegin(n *Network) {
	c.Stopped = false
	c.BestEpoch = 0
	c.best = math.Inf(1)
	c.bestParams = nil
	c.bad = 0
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss < c.best-c.MinDelta {
		c.best = loss
		c.BestEpoch = epoch
		c.bad = 0
		if c.RestoreBest {
			c.bestParams = n.Params()
		}
		return
	}

	c.bad++
	if c.bad < c.Patience {
		return
	}
	c.Stopped = true
	fmt.Printf("Early stopping at epoch %d: best loss %.6f at epoch %d\n", epoch, c.best, c.BestEpoch)
	if c.bestParams != nil {
		n.SetParams(c.bestParams)
	}
}

func (c *EarlyStopping) ShouldStop() bool {
	return c.Stopped
}

// ModelCheckpoint writes the network in text form whenever the epoch loss
// improves. The file is replaced atomically, so a crash mid-write never
// leaves a truncated model behind.
type ModelCheckpoint struct {
	BaseCallback
	Filename string

	// Saves counts successful writes; Err holds the last write failure.
	Saves    int
	BestLoss float64
	Err      error
}

func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{Filename: filename, BestLoss: math.Inf(1)}
}

func (c *ModelCheckpoint) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss >= c.BestLoss {
		return
	}
	if err := c.write(n); err != nil {
		c.Err = err
		fmt.Printf("Checkpoint at epoch %d failed: %v\n", epoch, err)
		return
	}
	c.BestLoss = loss
	c.Saves++
}

func (c *ModelCheckpoint) write(n *Network) error {
	tmp, err := os.CreateTemp(filepath.Dir(c.Filename), filepath.Base(c.Filename)+".*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := n.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return os.Rename(tmp.Name(), c.Filename)
}

// Logger prints the epoch loss and the number of Apply commits so far every
// Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
}

func (c Logger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.Interval > 0 && epoch%c.Interval == 0 {
		fmt.Printf("Epoch %d: loss = %.6f, updates = %d\n", epoch, loss, n.Commits())
	}
}
