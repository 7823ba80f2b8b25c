// Package net provides the layered node/weight network graph together with
// its forward pass, backpropagation, gradient application and persistence.
package net

import (
	"fmt"

	"github.com/FlavioCFOliveira/neurograph/internal/activations"
	"github.com/FlavioCFOliveira/neurograph/internal/loss"
	"github.com/FlavioCFOliveira/neurograph/internal/opt"
)

// Role is the position-derived kind of a node.
type Role int

const (
	Input Role = iota
	Hidden
	Output
)

func (r Role) String() string {
	switch r {
	case Input:
		return "input"
	case Hidden:
		return "hidden"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// NodeID indexes the network's node arena.
type NodeID int

// WeightID indexes the network's weight arena.
type WeightID int

// Node is a single neuron.
type Node struct {
	Role  Role
	Value float64 // activation after the last forward pass
	Bias  float64
	Error float64 // error signal after the last training step

	BiasGrad opt.Accumulator

	// Out holds weights to the next layer ordered by child index,
	// In holds weights from the previous layer ordered by parent index.
	Out []WeightID
	In  []WeightID
}

// Weight is a directed connection from a node to a node of the next layer.
type Weight struct {
	Parent NodeID
	Child  NodeID
	Value  float64
	Grad   opt.Accumulator
}

// Network is a fully connected feed-forward network stored as flat node and
// weight arenas. Layer 0 holds the inputs, the last layer the outputs.
//
// A Network is not safe for concurrent use.
type Network struct {
	nodes   []Node
	weights []Weight
	layers  [][]NodeID

	act  activations.Sigmoid
	loss loss.HalfSquared

	// Pre-allocated buffers reused by every forward and training pass
	outBuf []float64
	errBuf []float64

	// Apply history: number of successful commits and the example count of
	// the most recent one.
	commits    int
	lastCommit int
}

// Build creates a network with the given number of inputs, hidden layer sizes
// and outputs. All biases and weights start at zero; call Initialize to
// randomize them.
func Build(inputs int, hidden []int, outputs int) (*Network, error) {
	if inputs < 1 {
		return nil, fmt.Errorf("%w: input count %d, need at least 1", ErrInvalidTopology, inputs)
	}
	for i, h := range hidden {
		if h < 1 {
			return nil, fmt.Errorf("%w: hidden layer %d has size %d, need at least 1", ErrInvalidTopology, i, h)
		}
	}
	if outputs < 1 {
		return nil, fmt.Errorf("%w: output count %d, need at least 1", ErrInvalidTopology, outputs)
	}

	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, inputs)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, outputs)
	return newNetwork(sizes), nil
}

// newNetwork lays out nodes and zero-valued weights for the given layer sizes.
// Sizes must all be positive and there must be at least two layers.
func newNetwork(sizes []int) *Network {
	numNodes, numWeights := 0, 0
	for k, size := range sizes {
		numNodes += size
		if k > 0 {
			numWeights += size * sizes[k-1]
		}
	}

	n := &Network{
		nodes:   make([]Node, 0, numNodes),
		weights: make([]Weight, 0, numWeights),
		layers:  make([][]NodeID, len(sizes)),
		outBuf:  make([]float64, sizes[len(sizes)-1]),
		errBuf:  make([]float64, sizes[len(sizes)-1]),
	}

	last := len(sizes) - 1
	for k, size := range sizes {
		role := Hidden
		switch k {
		case 0:
			role = Input
		case last:
			role = Output
		}

		layer := make([]NodeID, size)
		for i := range layer {
			id := NodeID(len(n.nodes))
			n.nodes = append(n.nodes, Node{Role: role})
			layer[i] = id

			if k == 0 {
				continue
			}
			prev := n.layers[k-1]
			n.nodes[id].In = make([]WeightID, 0, len(prev))
			for _, parent := range prev {
				wid := WeightID(len(n.weights))
				n.weights = append(n.weights, Weight{Parent: parent, Child: id})
				n.nodes[parent].Out = append(n.nodes[parent].Out, wid)
				n.nodes[id].In = append(n.nodes[id].In, wid)
			}
		}
		n.layers[k] = layer
	}

	return n
}

// Node returns the node with the given id.
func (n *Network) Node(id NodeID) *Node {
	return &n.nodes[id]
}

// Weight returns the weight with the given id.
func (n *Network) Weight(id WeightID) *Weight {
	return &n.weights[id]
}

// Layer returns the node ids of layer k in index order.
// The returned slice must not be modified.
func (n *Network) Layer(k int) []NodeID {
	return n.layers[k]
}

// NodeAt returns node i of layer k.
func (n *Network) NodeAt(k, i int) *Node {
	return &n.nodes[n.layers[k][i]]
}

// NumLayers returns the number of layers including input and output.
func (n *Network) NumLayers() int {
	return len(n.layers)
}

// LayerSizes returns the node count of every layer.
func (n *Network) LayerSizes() []int {
	sizes := make([]int, len(n.layers))
	for k, l := range n.layers {
		sizes[k] = len(l)
	}
	return sizes
}

// InputCount returns the number of input nodes.
func (n *Network) InputCount() int {
	return len(n.layers[0])
}

// OutputCount returns the number of output nodes.
func (n *Network) OutputCount() int {
	return len(n.layers[len(n.layers)-1])
}

// HiddenLayerCount returns the number of layers between input and output.
func (n *Network) HiddenLayerCount() int {
	return len(n.layers) - 2
}

// NumNodes returns the total node count.
func (n *Network) NumNodes() int {
	return len(n.nodes)
}

// NumWeights returns the total weight count.
func (n *Network) NumWeights() int {
	return len(n.weights)
}

// SetBias sets the bias of node i in layer k.
func (n *Network) SetBias(k, i int, val float64) {
	n.NodeAt(k, i).Bias = val
}

// GetBias gets the bias of node i in layer k.
func (n *Network) GetBias(k, i int) float64 {
	return n.NodeAt(k, i).Bias
}

// SetWeight sets the weight from node parent of layer k-1 to node child of layer k.
func (n *Network) SetWeight(k, child, parent int, val float64) {
	n.weights[n.NodeAt(k, child).In[parent]].Value = val
}

// GetWeight gets the weight from node parent of layer k-1 to node child of layer k.
func (n *Network) GetWeight(k, child, parent int) float64 {
	return n.weights[n.NodeAt(k, child).In[parent]].Value
}
