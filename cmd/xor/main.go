package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/FlavioCFOliveira/neurograph/internal/net"
)

func main() {
	fmt.Println("=== XOR Training Example ===")

	// The XOR function cannot be solved by a single-layer perceptron
	// but can be solved by a multi-layer perceptron with hidden layers
	in := 2
	hidden := []int{4}
	out := 1

	fmt.Printf("Network architecture: %d-%d-%d\n", in, hidden[0], out)
	fmt.Println("Activation: Sigmoid, Loss: half squared error")
	fmt.Println("Update: full-batch gradient accumulation, rate 5.0")

	network, err := net.Build(in, hidden, out)
	if err != nil {
		fmt.Printf("Error building network: %v\n", err)
		return
	}
	network.Initialize(rand.New(rand.NewSource(42)))

	// XOR training data
	trainX := [][]float64{
		{0, 0},
		{0, 1},
		{1, 0},
		{1, 1},
	}
	trainY := [][]float64{
		{0},
		{1},
		{1},
		{0},
	}

	_, err = network.Fit(trainX, trainY, net.FitConfig{
		Epochs:    5000,
		Rate:      5.0,
		Callbacks: []net.Callback{net.Logger{Interval: 500}},
	})
	if err != nil {
		fmt.Printf("Error training network: %v\n", err)
		return
	}

	// Test the network
	fmt.Println("\nTesting trained network:")
	for i := range trainX {
		pred, _ := network.Evaluate(trainX[i])
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n",
			trainX[i], pred[0], trainY[i][0])
	}

	// Save the trained network
	fmt.Println("\nSaving network to disk...")
	if err := network.Save("xor_network.txt"); err != nil {
		fmt.Printf("Error saving network: %v\n", err)
		return
	}
	fmt.Println("Network saved successfully!")

	// Load the network back
	fmt.Println("Loading network from disk...")
	loadedNetwork, err := net.Load("xor_network.txt")
	if err != nil {
		fmt.Printf("Error loading network: %v\n", err)
		return
	}
	fmt.Println("Network loaded successfully!")

	// Verify loaded network produces same predictions
	fmt.Println("\nVerifying loaded network:")
	allMatch := true
	for i := range trainX {
		originalPred, _ := network.Evaluate(trainX[i])
		loadedPred, _ := loadedNetwork.Evaluate(trainX[i])
		match := "OK"
		if math.Abs(originalPred[0]-loadedPred[0]) > 1e-12 {
			match = "MISMATCH"
			allMatch = false
		}
		fmt.Printf("Input: %v, Original: %.4f, Loaded: %.4f [%s]\n",
			trainX[i], originalPred[0], loadedPred[0], match)
	}

	if allMatch {
		fmt.Println("\nSUCCESS: All predictions match between original and loaded network!")
	} else {
		fmt.Println("\nFAILURE: Predictions differ between original and loaded network!")
	}
}
