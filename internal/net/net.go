package net

import (
	"fmt"

	"github.com/FlavioCFOliveira/neurograph/internal/opt"
)

// RandSource supplies uniform samples in [0, 1). *math/rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Initialize draws every bias and then every weight independently and
// uniformly from [-0.5, 0.5). Accumulators are left as they are.
func (n *Network) Initialize(src RandSource) {
	for i := range n.nodes {
		n.nodes[i].Bias = src.Float64() - 0.5
	}
	for i := range n.weights {
		n.weights[i].Value = src.Float64() - 0.5
	}
}

// Evaluate performs a forward pass and returns the output activations in
// output node order. The returned slice is newly allocated.
func (n *Network) Evaluate(inputs []float64) ([]float64, error) {
	out, err := n.forward(inputs)
	if err != nil {
		return nil, err
	}
	result := make([]float64, len(out))
	copy(result, out)
	return result, nil
}

// forward computes every activation layer by layer and returns the output
// activations in the network's reusable buffer.
func (n *Network) forward(inputs []float64) ([]float64, error) {
	if len(inputs) != n.InputCount() {
		return nil, fmt.Errorf("%w: got %d values, network has %d inputs",
			ErrInputSizeMismatch, len(inputs), n.InputCount())
	}

	for i, id := range n.layers[0] {
		n.nodes[id].Value = inputs[i]
	}

	nodes := n.nodes
	weights := n.weights
	for k := 1; k < len(n.layers); k++ {
		for _, id := range n.layers[k] {
			node := &nodes[id]
			sum := node.Bias
			for _, wid := range node.In {
				w := &weights[wid]
				sum += w.Value * nodes[w.Parent].Value
			}
			node.Value = n.act.Activate(sum)
		}
	}

	out := n.outBuf
	for i, id := range n.layers[len(n.layers)-1] {
		out[i] = nodes[id].Value
	}
	return out, nil
}

// Train runs a forward pass on inputs, then backpropagates the error against
// targets and adds this example's contributions to every gradient
// accumulator. It returns the half squared error of the example.
//
// Train is the accumulate phase: it may be called any number of times before
// Apply commits the averaged gradients.
func (n *Network) Train(inputs, targets []float64) (float64, error) {
	if len(targets) != n.OutputCount() {
		return 0, fmt.Errorf("%w: got %d targets, network has %d outputs",
			ErrOutputSizeMismatch, len(targets), n.OutputCount())
	}

	yPred, err := n.forward(inputs)
	if err != nil {
		return 0, err
	}

	l := n.loss.Forward(yPred, targets)
	n.loss.ErrorInPlace(yPred, targets, n.errBuf)

	last := len(n.layers) - 1
	for i, id := range n.layers[last] {
		node := &n.nodes[id]
		node.Error = n.errBuf[i]
		n.accumulateBias(node)
	}

	for k := last - 1; k >= 0; k-- {
		for _, id := range n.layers[k] {
			n.backpropNode(&n.nodes[id])
		}
	}

	return l, nil
}

// backpropNode sets the node's error from its children and accumulates the
// gradient of each outgoing weight and of the node's bias.
func (n *Network) backpropNode(node *Node) {
	var e float64
	for _, wid := range node.Out {
		w := &n.weights[wid]
		child := &n.nodes[w.Child]
		delta := child.Error * n.act.DerivativeFromOutput(child.Value)
		w.Grad.Add(delta * node.Value)
		e += delta * w.Value
	}
	node.Error = e
	n.accumulateBias(node)
}

// accumulateBias adds error * f'(value) * bias to the node's bias gradient.
// The factor of the node's own bias is intentional; see DESIGN.md.
func (n *Network) accumulateBias(node *Node) {
	node.BiasGrad.Add(node.Error * n.act.DerivativeFromOutput(node.Value) * node.Bias)
}

// Apply is the commit phase of training: every weight and bias moves by
// rate times its averaged accumulated gradient, and all accumulators are
// reset. A rate of 1 applies the plain average.
//
// If any accumulator has no contributions, Apply returns
// ErrDivideByZeroOnApply and leaves the network unchanged.
func (n *Network) Apply(rate float64) error {
	for i := range n.weights {
		if n.weights[i].Grad.Empty() {
			return fmt.Errorf("%w: weight %d has no gradient contributions", ErrDivideByZeroOnApply, i)
		}
	}
	for i := range n.nodes {
		if n.nodes[i].BiasGrad.Empty() {
			return fmt.Errorf("%w: node %d has no bias gradient contributions", ErrDivideByZeroOnApply, i)
		}
	}

	examples := n.nodes[0].BiasGrad.Count
	sgd := opt.SGD{LearningRate: rate}
	for i := range n.weights {
		w := &n.weights[i]
		if err := sgd.StepInPlace(&w.Value, &w.Grad); err != nil {
			return fmt.Errorf("failed to update weight %d: %w", i, err)
		}
	}
	for i := range n.nodes {
		node := &n.nodes[i]
		if err := sgd.StepInPlace(&node.Bias, &node.BiasGrad); err != nil {
			return fmt.Errorf("failed to update bias %d: %w", i, err)
		}
	}
	n.commits++
	n.lastCommit = examples
	return nil
}

// Commits returns how many times Apply has succeeded on this network.
func (n *Network) Commits() int { return n.commits }

// LastCommitExamples returns the number of Train calls folded into the most
// recent successful Apply.
func (n *Network) LastCommitExamples() int { return n.lastCommit }

// ResetGradients discards every accumulated contribution without applying it.
func (n *Network) ResetGradients() {
	for i := range n.weights {
		n.weights[i].Grad.Reset()
	}
	for i := range n.nodes {
		n.nodes[i].BiasGrad.Reset()
	}
}

// Params returns all biases in node order followed by all weights in weight
// order (copy).
func (n *Network) Params() []float64 {
	params := make([]float64, 0, len(n.nodes)+len(n.weights))
	for i := range n.nodes {
		params = append(params, n.nodes[i].Bias)
	}
	for i := range n.weights {
		params = append(params, n.weights[i].Value)
	}
	return params
}

// SetParams updates biases and weights from a slice laid out like Params (in-place).
func (n *Network) SetParams(params []float64) {
	if len(params) != len(n.nodes)+len(n.weights) {
		panic(fmt.Sprintf("net: SetParams got %d values, network has %d parameters",
			len(params), len(n.nodes)+len(n.weights)))
	}
	for i := range n.nodes {
		n.nodes[i].Bias = params[i]
	}
	for i := range n.weights {
		n.weights[i].Value = params[len(n.nodes)+i]
	}
}

// Gradients returns the accumulated gradient sums in the same order as Params (copy).
func (n *Network) Gradients() []float64 {
	gradients := make([]float64, 0, len(n.nodes)+len(n.weights))
	for i := range n.nodes {
		gradients = append(gradients, n.nodes[i].BiasGrad.Sum)
	}
	for i := range n.weights {
		gradients = append(gradients, n.weights[i].Grad.Sum)
	}
	return gradients
}
