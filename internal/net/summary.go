package net

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// WeightMatrix returns the weights feeding layer k (k >= 1) as a dense
// matrix: row i holds the incoming weights of node i of layer k, column j
// the weight from node j of layer k-1.
func (n *Network) WeightMatrix(k int) *mat.Dense {
	if k < 1 || k >= len(n.layers) {
		panic(fmt.Sprintf("net: WeightMatrix layer %d out of range [1, %d)", k, len(n.layers)))
	}
	rows, cols := len(n.layers[k]), len(n.layers[k-1])
	data := make([]float64, 0, rows*cols)
	for _, id := range n.layers[k] {
		for _, wid := range n.nodes[id].In {
			data = append(data, n.weights[wid].Value)
		}
	}
	return mat.NewDense(rows, cols, data)
}

// BiasVector returns the biases of layer k in node order.
func (n *Network) BiasVector(k int) *mat.VecDense {
	layer := n.layers[k]
	data := make([]float64, len(layer))
	for i, id := range layer {
		data[i] = n.nodes[id].Bias
	}
	return mat.NewVecDense(len(data), data)
}

// Summary writes a summary of the network architecture.
func (n *Network) Summary(w io.Writer) {
	fmt.Fprintln(w, "Model: Network")
	fmt.Fprintln(w, "_________________________________________________________________")
	fmt.Fprintf(w, "%-20s %-10s %-10s %-10s\n", "Layer (role)", "Nodes", "Param #", "|W|")
	fmt.Fprintln(w, "=================================================================")

	totalParams := 0
	for k, layer := range n.layers {
		role := n.nodes[layer[0]].Role
		params := len(layer)
		norm := "-"
		if k > 0 {
			wm := n.WeightMatrix(k)
			r, c := wm.Dims()
			params += r * c
			norm = fmt.Sprintf("%.4f", mat.Norm(wm, 2))
		}
		totalParams += params
		fmt.Fprintf(w, "%-20s %-10d %-10d %-10s\n", fmt.Sprintf("%s_%d", role, k), len(layer), params, norm)
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Total params: %d\n", totalParams)
	fmt.Fprintln(w, "_________________________________________________________________")
}
