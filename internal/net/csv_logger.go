package net

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var csvLogHeader = []string{"epoch", "batch", "examples", "commits", "loss", "time_seconds"}

// CSVLogger writes one row per committed batch and one summary row per
// epoch. Batch rows carry the batch index, the number of examples folded into
// that Apply and the network's running commit count; summary rows use
// "epoch" in the batch column and the total examples of the epoch.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	start  time.Time

	epoch    int
	examples int
}

func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{Filename: filename, Append: append}
}

func (c *CSVLogger) OnTrainBegin(n *Network) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if c.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(c.Filename, flags, 0644)
	if err != nil {
		fmt.Printf("CSVLogger: failed to open %s: %v\n", c.Filename, err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	if info, err := file.Stat(); err == nil && info.Size() == 0 {
		c.write(csvLogHeader)
	}
}

func (c *CSVLogger) OnEpochBegin(epoch int, n *Network) {
	c.epoch = epoch
	c.examples = 0
}

func (c *CSVLogger) OnBatchEnd(batch int, loss float64, n *Network) {
	c.examples += n.LastCommitExamples()
	c.write(c.row(strconv.Itoa(batch), n.LastCommitExamples(), n.Commits(), loss))
}

func (c *CSVLogger) OnEpochEnd(epoch int, loss float64, n *Network) {
	c.write(c.row("epoch", c.examples, n.Commits(), loss))
}

func (c *CSVLogger) OnTrainEnd(n *Network) {
	if c.file == nil {
		return
	}
	c.writer.Flush()
	if err := c.file.Close(); err != nil {
		fmt.Printf("CSVLogger: failed to close %s: %v\n", c.Filename, err)
	}
	c.file, c.writer = nil, nil
}

func (c *CSVLogger) row(batch string, examples, commits int, loss float64) []string {
	return []string{
		strconv.Itoa(c.epoch),
		batch,
		strconv.Itoa(examples),
		strconv.Itoa(commits),
		strconv.FormatFloat(loss, 'f', 6, 64),
		strconv.FormatFloat(time.Since(c.start).Seconds(), 'f', 2, 64),
	}
}

func (c *CSVLogger) write(record []string) {
	if c.writer == nil {
		return
	}
	c.writer.Write(record)
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		fmt.Printf("CSVLogger: failed to write record: %v\n", err)
	}
}
