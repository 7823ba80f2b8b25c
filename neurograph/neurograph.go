// Package neurograph is the public entry point of the engine: build a layered
// sigmoid network, initialize it, evaluate it, train it with accumulated
// gradients and persist it as text.
package neurograph

import (
	"io"

	"github.com/FlavioCFOliveira/neurograph/internal/net"
)

// Re-export common types for easier access
type (
	Network    = net.Network
	Node       = net.Node
	Weight     = net.Weight
	NodeID     = net.NodeID
	WeightID   = net.WeightID
	Role       = net.Role
	RandSource = net.RandSource
	FitConfig  = net.FitConfig
	Callback   = net.Callback
	Dataset    = net.Dataset
	Scaler     = net.Scaler
)

// Node roles
const (
	Input  = net.Input
	Hidden = net.Hidden
	Output = net.Output
)

// Error kinds
var (
	ErrInvalidTopology     = net.ErrInvalidTopology
	ErrInputSizeMismatch   = net.ErrInputSizeMismatch
	ErrOutputSizeMismatch  = net.ErrOutputSizeMismatch
	ErrFormat              = net.ErrFormat
	ErrDivideByZeroOnApply = net.ErrDivideByZeroOnApply
)

// Build creates a zero-initialized network.
func Build(inputs int, hidden []int, outputs int) (*Network, error) {
	return net.Build(inputs, hidden, outputs)
}

// Initialize randomizes every bias and weight in [-0.5, 0.5).
func Initialize(n *Network, src RandSource) {
	n.Initialize(src)
}

// Evaluate runs a forward pass.
func Evaluate(n *Network, inputs []float64) ([]float64, error) {
	return n.Evaluate(inputs)
}

// Train accumulates one example's gradients and returns its loss.
func Train(n *Network, inputs, targets []float64) (float64, error) {
	return n.Train(inputs, targets)
}

// Apply commits the averaged accumulated gradients scaled by rate.
func Apply(n *Network, rate float64) error {
	return n.Apply(rate)
}

// Save returns the text form of the network.
func Save(n *Network) string {
	return n.String()
}

// Load parses the text form of a network.
func Load(text string) (*Network, error) {
	return net.Parse(text)
}

// Encode writes the text form of the network to w.
func Encode(n *Network, w io.Writer) error {
	return n.Encode(w)
}

// Decode reads the text form of a network from r.
func Decode(r io.Reader) (*Network, error) {
	return net.Decode(r)
}

// Model Persistence
func SaveFile(n *Network, filename string) error {
	return n.Save(filename)
}

func LoadFile(filename string) (*Network, error) {
	return net.Load(filename)
}

func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	return net.LoadCSV(filename, labelCols, hasHeader)
}

// LoadScaler reads a feature range saved with (*Scaler).Save.
func LoadScaler(filename string) (*Scaler, error) {
	return net.LoadScaler(filename)
}

// Callbacks
func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func ModelCheckpoint(filename string) Callback {
	return net.NewModelCheckpoint(filename)
}

func EarlyStopping(patience int, minDelta float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, minDelta)
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}
