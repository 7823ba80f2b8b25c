package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/FlavioCFOliveira/neurograph/internal/net"
)

// MLP trains a sigmoid network on a CSV dataset and saves it, or evaluates a
// previously saved network on a CSV dataset.
func main() {
	data := flag.String("data", "", "CSV dataset (required)")
	labels := flag.String("labels", "", "comma separated label column indices (default: last column)")
	header := flag.Bool("header", false, "skip the first CSV row")
	normalize := flag.Bool("normalize", true, "min-max normalize features; with -model, reuse the range saved next to the model")
	hidden := flag.String("hidden", "8", "comma separated hidden layer sizes, empty for none")
	epochs := flag.Int("epochs", 1000, "training epochs")
	rate := flag.Float64("rate", 1.0, "rate applied to the averaged gradient")
	batch := flag.Int("batch", 0, "examples accumulated per update, 0 for the whole training set")
	seed := flag.Int64("seed", 42, "random seed for initialization")
	split := flag.Float64("split", 0.8, "fraction of rows used for training")
	out := flag.String("out", "model.txt", "where to save the trained network")
	logFile := flag.String("log", "", "optional CSV training log")
	patience := flag.Int("patience", 0, "stop after this many epochs without improvement, 0 disables")
	interval := flag.Int("interval", 100, "print the loss every N epochs")
	model := flag.String("model", "", "evaluate this saved network instead of training")
	flag.Parse()

	if *data == "" {
		flag.Usage()
		os.Exit(2)
	}

	labelCols, err := labelColumns(*labels, *data)
	if err != nil {
		log.Fatal("Error reading labels: ", err)
	}

	dataset, err := net.LoadCSV(*data, labelCols, *header)
	if err != nil {
		log.Fatal("Error loading CSV: ", err)
	}

	if *model != "" {
		network, err := net.Load(*model)
		if err != nil {
			log.Fatal("Error loading model: ", err)
		}
		if err := prepareEval(dataset, network, *model, *normalize); err != nil {
			log.Fatal("Error preparing data: ", err)
		}
		network.Summary(os.Stdout)
		report(network, dataset)
		return
	}

	hiddenSizes, err := parseInts(*hidden)
	if err != nil {
		log.Fatal("Error parsing -hidden: ", err)
	}

	network, err := net.Build(len(dataset.Samples[0]), hiddenSizes, len(dataset.Labels[0]))
	if err != nil {
		log.Fatal("Error building network: ", err)
	}
	network.Initialize(rand.New(rand.NewSource(*seed)))
	network.Summary(os.Stdout)

	train, test := dataset.Split(*split)
	if len(train.Samples) == 0 {
		log.Fatal("Error: -split leaves no training rows")
	}
	var scaler *net.Scaler
	if *normalize {
		scaler = train.Normalize()
		if err := scaler.Transform(test); err != nil {
			log.Fatal("Error normalizing held-out rows: ", err)
		}
	}

	callbacks := []net.Callback{net.Logger{Interval: *interval}}
	if *logFile != "" {
		callbacks = append(callbacks, net.NewCSVLogger(*logFile, false))
	}
	if *patience > 0 {
		stop := net.NewEarlyStopping(*patience, 1e-6)
		stop.RestoreBest = true
		callbacks = append(callbacks, stop)
	}

	finalLoss, err := network.FitDataset(train, net.FitConfig{
		Epochs:    *epochs,
		Rate:      *rate,
		BatchSize: *batch,
		Callbacks: callbacks,
	})
	if err != nil {
		log.Fatal("Error training: ", err)
	}
	fmt.Printf("\nFinal training loss: %.6f\n", finalLoss)

	if len(test.Samples) > 0 {
		fmt.Println("\nHeld-out evaluation:")
		report(network, test)
	}

	if err := network.Save(*out); err != nil {
		log.Fatal("Error saving model: ", err)
	}
	if err := saveScaler(scaler, *out); err != nil {
		log.Fatal("Error saving scaler: ", err)
	}
	fmt.Printf("Model saved to %s\n", *out)
}

// scalerPath is where the training feature range is kept for a model file.
func scalerPath(model string) string {
	return model + ".scale"
}

// saveScaler writes the training range next to the model, or removes a stale
// one when the model was trained on raw features.
func saveScaler(s *net.Scaler, model string) error {
	if s == nil {
		if err := os.Remove(scalerPath(model)); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return s.Save(scalerPath(model))
}

// prepareEval checks d against the network and, when normalizing, scales it
// with the range saved at training time. Scaling evaluation rows by their own
// range would feed the network different values than it was trained on.
func prepareEval(d *net.Dataset, network *net.Network, model string, normalize bool) error {
	if err := d.Check(network); err != nil {
		return err
	}
	if !normalize {
		return nil
	}
	s, err := net.LoadScaler(scalerPath(model))
	if err != nil {
		return fmt.Errorf("-normalize needs the training range (use -normalize=false for a model trained on raw features): %w", err)
	}
	return s.Transform(d)
}

// report prints the mean loss, and for classification targets the accuracy.
func report(network *net.Network, d *net.Dataset) {
	var totalLoss float64
	correct := 0
	for i := range d.Samples {
		pred, err := network.Evaluate(d.Samples[i])
		if err != nil {
			log.Fatal("Error evaluating: ", err)
		}
		for j := range pred {
			diff := d.Labels[i][j] - pred[j]
			totalLoss += 0.5 * diff * diff
		}
		if matches(pred, d.Labels[i]) {
			correct++
		}
	}
	n := float64(len(d.Samples))
	fmt.Printf("Samples: %d, Loss: %.6f, Accuracy: %.1f%%\n", len(d.Samples), totalLoss/n, float64(correct)/n*100)
}

// matches compares the arg max for one-hot labels and a 0.5 threshold for a single output.
func matches(pred, label []float64) bool {
	if len(pred) == 1 {
		return (pred[0] >= 0.5) == (label[0] >= 0.5)
	}
	return maxIndex(pred) == maxIndex(label)
}

func maxIndex(v []float64) int {
	best, idx := math.Inf(-1), 0
	for i, x := range v {
		if x > best {
			best, idx = x, i
		}
	}
	return idx
}

func parseInts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", p, err)
		}
		values[i] = v
	}
	return values, nil
}

// labelColumns parses -labels, defaulting to the last column of the file.
func labelColumns(spec, filename string) ([]int, error) {
	if spec != "" {
		return parseInts(spec)
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	first, _, _ := strings.Cut(string(raw), "\n")
	cols := len(strings.Split(first, ","))
	if cols < 2 {
		return nil, fmt.Errorf("need at least one feature and one label column, found %d columns", cols)
	}
	return []int{cols - 1}, nil
}
