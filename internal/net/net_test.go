// Package net provides comprehensive unit tests for the network engine.
package net

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// xorParams are fixed parameters for a 2-3-1 network, laid out like Params.
var xorParams = []float64{
	0.1, -0.2, 0.3, -0.1, 0.2, 0.15, // biases
	0.4, -0.3, 0.25, 0.1, -0.35, 0.45, // input -> hidden
	0.2, -0.15, 0.3, // hidden -> output
}

func newTestNetwork(t *testing.T, inputs int, hidden []int, outputs int, seed int64) *Network {
	t.Helper()
	n, err := Build(inputs, hidden, outputs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n.Initialize(rand.New(rand.NewSource(seed)))
	return n
}

// TestEvaluateZeroNetwork tests that an all-zero network outputs sigmoid(0).
func TestEvaluateZeroNetwork(t *testing.T) {
	n, err := Build(3, []int{4, 2}, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, input := range [][]float64{{0, 0, 0}, {1, -2, 3.5}, {100, 0.1, -7}} {
		output, err := n.Evaluate(input)
		if err != nil {
			t.Fatalf("Evaluate(%v): %v", input, err)
		}
		for i, v := range output {
			if v != 0.5 {
				t.Errorf("Evaluate(%v)[%d] = %v, want 0.5", input, i, v)
			}
		}
	}
}

// TestEvaluateSingleWeight tests the 1-1 network with weight 1 and input 0.
func TestEvaluateSingleWeight(t *testing.T) {
	n, err := Build(1, nil, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n.SetWeight(1, 0, 0, 1.0)
	n.SetBias(1, 0, 0.0)

	output, err := n.Evaluate([]float64{0.0})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(output) != 1 || output[0] != 0.5 {
		t.Errorf("Evaluate = %v, want [0.5]", output)
	}
}

// TestEvaluateHandComputed tests a forward pass against a manual computation.
func TestEvaluateHandComputed(t *testing.T) {
	n, err := Build(2, []int{2}, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n.SetWeight(1, 0, 0, 0.5)
	n.SetWeight(1, 0, 1, -0.25)
	n.SetWeight(1, 1, 0, 0.3)
	n.SetWeight(1, 1, 1, 0.8)
	n.SetBias(1, 0, 0.1)
	n.SetBias(1, 1, -0.2)
	n.SetWeight(2, 0, 0, 1.5)
	n.SetWeight(2, 0, 1, -0.7)
	n.SetBias(2, 0, 0.05)
	// Input biases do not take part in evaluation.
	n.SetBias(0, 0, 9)

	x := []float64{1, 2}
	h0 := sigmoid(0.1 + 0.5*x[0] - 0.25*x[1])
	h1 := sigmoid(-0.2 + 0.3*x[0] + 0.8*x[1])
	want := sigmoid(0.05 + 1.5*h0 - 0.7*h1)

	output, err := n.Evaluate(x)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(output[0]-want) > 1e-12 {
		t.Errorf("Evaluate = %v, want %v", output[0], want)
	}
	if got := n.NodeAt(0, 1).Value; got != 2 {
		t.Errorf("input activation = %v, want the raw input 2", got)
	}
}

// TestEvaluateInputSizeMismatch tests rejection of wrong-length inputs.
func TestEvaluateInputSizeMismatch(t *testing.T) {
	n := newTestNetwork(t, 2, []int{3}, 1, 1)

	for _, input := range [][]float64{nil, {1}, {1, 2, 3}} {
		if _, err := n.Evaluate(input); !errors.Is(err, ErrInputSizeMismatch) {
			t.Errorf("Evaluate(%v) err = %v, want ErrInputSizeMismatch", input, err)
		}
	}
}

// TestEvaluateReturnsCopy tests that outputs are not aliased to internal state.
func TestEvaluateReturnsCopy(t *testing.T) {
	n := newTestNetwork(t, 2, []int{3}, 2, 1)

	first, _ := n.Evaluate([]float64{0.1, 0.9})
	saved := append([]float64(nil), first...)
	if _, err := n.Evaluate([]float64{5, -5}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !floats.Equal(first, saved) {
		t.Errorf("earlier result changed from %v to %v", saved, first)
	}
}

// TestInitializeRange tests that parameters are drawn from [-0.5, 0.5).
func TestInitializeRange(t *testing.T) {
	n := newTestNetwork(t, 5, []int{8, 6}, 3, 42)

	params := n.Params()
	nonZero := 0
	for i, p := range params {
		if p < -0.5 || p >= 0.5 {
			t.Errorf("param %d = %v out of [-0.5, 0.5)", i, p)
		}
		if p != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("Initialize left every parameter at zero")
	}
	for i, g := range n.Gradients() {
		if g != 0 {
			t.Errorf("gradient %d = %v after Initialize, want 0", i, g)
		}
	}
}

// TestInitializeDeterministic tests reproducibility for a fixed seed.
func TestInitializeDeterministic(t *testing.T) {
	a := newTestNetwork(t, 3, []int{4}, 2, 7)
	b := newTestNetwork(t, 3, []int{4}, 2, 7)
	c := newTestNetwork(t, 3, []int{4}, 2, 8)

	if !floats.Equal(a.Params(), b.Params()) {
		t.Error("same seed produced different parameters")
	}
	if floats.Equal(a.Params(), c.Params()) {
		t.Error("different seeds produced identical parameters")
	}
}

// TestTrainLoss tests that Train returns the half squared error.
func TestTrainLoss(t *testing.T) {
	n := newTestNetwork(t, 3, []int{4}, 2, 3)
	inputs := []float64{0.2, -0.4, 1.0}
	targets := []float64{1, 0}

	output, err := n.Evaluate(inputs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := 0.0
	for i := range targets {
		d := targets[i] - output[i]
		want += 0.5 * d * d
	}

	got, err := n.Train(inputs, targets)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Train loss = %v, want %v", got, want)
	}
	for i, id := range n.Layer(2) {
		if e := n.Node(id).Error; math.Abs(e-(targets[i]-output[i])) > 1e-12 {
			t.Errorf("output %d error = %v, want %v", i, e, targets[i]-output[i])
		}
	}
}

// TestTrainSizeMismatch tests that bad vectors are rejected before any accumulation.
func TestTrainSizeMismatch(t *testing.T) {
	n := newTestNetwork(t, 2, []int{3}, 1, 1)

	if _, err := n.Train([]float64{1, 2}, []float64{1, 0}); !errors.Is(err, ErrOutputSizeMismatch) {
		t.Errorf("err = %v, want ErrOutputSizeMismatch", err)
	}
	if _, err := n.Train([]float64{1}, []float64{1}); !errors.Is(err, ErrInputSizeMismatch) {
		t.Errorf("err = %v, want ErrInputSizeMismatch", err)
	}
	for i, g := range n.Gradients() {
		if g != 0 {
			t.Errorf("gradient %d = %v after failed Train, want 0", i, g)
		}
	}
}

// TestTrainGradientsHandComputed tests every accumulated contribution of a
// 1-1-1 network against a manual backward pass.
func TestTrainGradientsHandComputed(t *testing.T) {
	n, err := Build(1, []int{1}, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const (
		bIn, w1, b1, w2, b2 = 0.4, 0.5, 0.2, -0.3, 0.1
		x, target           = 0.6, 1.0
	)
	n.SetBias(0, 0, bIn)
	n.SetWeight(1, 0, 0, w1)
	n.SetBias(1, 0, b1)
	n.SetWeight(2, 0, 0, w2)
	n.SetBias(2, 0, b2)

	h := sigmoid(b1 + w1*x)
	o := sigmoid(b2 + w2*h)
	eOut := target - o
	dOut := o * (1 - o)
	eHidden := eOut * dOut * w2
	dHidden := h * (1 - h)
	eIn := eHidden * dHidden * w1

	loss, err := n.Train([]float64{x}, []float64{target})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"loss", loss, 0.5 * eOut * eOut},
		{"output bias grad", n.NodeAt(2, 0).BiasGrad.Sum, eOut * dOut * b2},
		{"hidden->output grad", n.Weight(n.NodeAt(2, 0).In[0]).Grad.Sum, eOut * dOut * h},
		{"hidden error", n.NodeAt(1, 0).Error, eHidden},
		{"hidden bias grad", n.NodeAt(1, 0).BiasGrad.Sum, eHidden * dHidden * b1},
		{"input->hidden grad", n.Weight(n.NodeAt(1, 0).In[0]).Grad.Sum, eHidden * dHidden * x},
		{"input error", n.NodeAt(0, 0).Error, eIn},
		{"input bias grad", n.NodeAt(0, 0).BiasGrad.Sum, eIn * x * (1 - x) * bIn},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	for i := 0; i < n.NumWeights(); i++ {
		if c := n.Weight(WeightID(i)).Grad.Count; c != 1 {
			t.Errorf("weight %d count = %d, want 1", i, c)
		}
	}
	for i := 0; i < n.NumNodes(); i++ {
		if c := n.Node(NodeID(i)).BiasGrad.Count; c != 1 {
			t.Errorf("node %d bias count = %d, want 1", i, c)
		}
	}
}

// TestTrainAccumulates tests that repeated Train calls add up.
func TestTrainAccumulates(t *testing.T) {
	n := newTestNetwork(t, 2, []int{3}, 1, 5)
	x, y := []float64{0.3, 0.7}, []float64{1}

	if _, err := n.Train(x, y); err != nil {
		t.Fatalf("Train: %v", err)
	}
	once := n.Gradients()
	if _, err := n.Train(x, y); err != nil {
		t.Fatalf("Train: %v", err)
	}
	twice := n.Gradients()

	floats.Scale(2, once)
	if !floats.EqualApprox(once, twice, 1e-12) {
		t.Errorf("two identical examples accumulated %v, want %v", twice, once)
	}
	if c := n.Weight(0).Grad.Count; c != 2 {
		t.Errorf("count = %d, want 2", c)
	}
}

// TestApplyResetsAccumulators tests the commit phase clears all accumulators.
func TestApplyResetsAccumulators(t *testing.T) {
	n := newTestNetwork(t, 2, []int{3, 2}, 2, 9)
	for _, ex := range [][2][]float64{{{0, 1}, {1, 0}}, {{1, 1}, {0, 1}}} {
		if _, err := n.Train(ex[0], ex[1]); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}
	if err := n.Apply(1); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for i := 0; i < n.NumWeights(); i++ {
		if g := n.Weight(WeightID(i)).Grad; g.Sum != 0 || g.Count != 0 {
			t.Errorf("weight %d accumulator = %+v, want zero", i, g)
		}
	}
	for i := 0; i < n.NumNodes(); i++ {
		if g := n.Node(NodeID(i)).BiasGrad; g.Sum != 0 || g.Count != 0 {
			t.Errorf("node %d accumulator = %+v, want zero", i, g)
		}
	}
}

// TestApplyWithoutTrain tests the divide-by-zero failure leaves parameters intact.
func TestApplyWithoutTrain(t *testing.T) {
	n := newTestNetwork(t, 2, []int{3}, 1, 1)
	before := n.Params()

	if err := n.Apply(1); !errors.Is(err, ErrDivideByZeroOnApply) {
		t.Fatalf("err = %v, want ErrDivideByZeroOnApply", err)
	}
	if !floats.Equal(before, n.Params()) {
		t.Error("failed Apply modified parameters")
	}

	// A second commit after a successful one also has nothing to apply.
	if _, err := n.Train([]float64{1, 0}, []float64{1}); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if err := n.Apply(1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := n.Apply(1); !errors.Is(err, ErrDivideByZeroOnApply) {
		t.Errorf("second Apply err = %v, want ErrDivideByZeroOnApply", err)
	}
}

// TestApplyCommitCounts tests that only successful commits are counted.
func TestApplyCommitCounts(t *testing.T) {
	n := newTestNetwork(t, 2, []int{3}, 1, 1)
	if n.Commits() != 0 || n.LastCommitExamples() != 0 {
		t.Fatalf("fresh network commits = %d/%d", n.Commits(), n.LastCommitExamples())
	}

	for _, x := range [][]float64{{0, 1}, {1, 0}, {1, 1}} {
		if _, err := n.Train(x, []float64{1}); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}
	if err := n.Apply(1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n.Commits() != 1 || n.LastCommitExamples() != 3 {
		t.Errorf("commits = %d, last = %d, want 1 and 3", n.Commits(), n.LastCommitExamples())
	}

	if err := n.Apply(1); err == nil {
		t.Fatal("Apply with no contributions should fail")
	}
	if n.Commits() != 1 || n.LastCommitExamples() != 3 {
		t.Errorf("failed Apply changed counts to %d/%d", n.Commits(), n.LastCommitExamples())
	}
}

// TestApplyRate tests that the rate scales the averaged gradient.
func TestApplyRate(t *testing.T) {
	for _, rate := range []float64{1, 0.5, 3} {
		n := newTestNetwork(t, 2, []int{2}, 1, 11)
		before := n.Params()
		for _, x := range [][]float64{{0, 1}, {1, 0}, {1, 1}} {
			if _, err := n.Train(x, []float64{1}); err != nil {
				t.Fatalf("Train: %v", err)
			}
		}
		grads := n.Gradients()

		if err := n.Apply(rate); err != nil {
			t.Fatalf("Apply: %v", err)
		}

		want := make([]float64, len(before))
		floats.AddScaledTo(want, before, rate/3, grads)
		if !floats.EqualApprox(n.Params(), want, 1e-12) {
			t.Errorf("rate %v: params = %v, want %v", rate, n.Params(), want)
		}
	}
}

// TestAccumulationOrderIndependence tests that accumulating two examples then
// applying equals applying the average of their individual contributions.
func TestAccumulationOrderIndependence(t *testing.T) {
	ex1x, ex1y := []float64{0.1, 0.9, -0.3}, []float64{1, 0}
	ex2x, ex2y := []float64{-0.5, 0.2, 0.7}, []float64{0, 1}

	// Individual contributions
	ref := newTestNetwork(t, 3, []int{4}, 2, 21)
	before := ref.Params()
	if _, err := ref.Train(ex1x, ex1y); err != nil {
		t.Fatalf("Train: %v", err)
	}
	g1 := ref.Gradients()
	ref.ResetGradients()
	if _, err := ref.Train(ex2x, ex2y); err != nil {
		t.Fatalf("Train: %v", err)
	}
	g2 := ref.Gradients()

	want := make([]float64, len(before))
	floats.AddTo(want, g1, g2)
	floats.Scale(0.5, want)
	floats.Add(want, before)

	forward := newTestNetwork(t, 3, []int{4}, 2, 21)
	backward := newTestNetwork(t, 3, []int{4}, 2, 21)
	steps := []struct {
		n    *Network
		x, y []float64
	}{
		{forward, ex1x, ex1y},
		{forward, ex2x, ex2y},
		{backward, ex2x, ex2y},
		{backward, ex1x, ex1y},
	}
	for _, s := range steps {
		if _, err := s.n.Train(s.x, s.y); err != nil {
			t.Fatalf("Train: %v", err)
		}
	}
	if err := forward.Apply(1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := backward.Apply(1); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !floats.EqualApprox(forward.Params(), want, 1e-12) {
		t.Errorf("accumulated update = %v, want %v", forward.Params(), want)
	}
	if !floats.EqualApprox(forward.Params(), backward.Params(), 1e-12) {
		t.Error("example order changed the averaged update")
	}
}

// TestSetParamsRoundTrip tests SetParams against Params.
func TestSetParamsRoundTrip(t *testing.T) {
	n, err := Build(2, []int{3}, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n.SetParams(xorParams)
	if !floats.Equal(n.Params(), xorParams) {
		t.Errorf("Params = %v, want %v", n.Params(), xorParams)
	}
	if got := n.GetWeight(2, 0, 2); got != 0.3 {
		t.Errorf("hidden 2 -> output weight = %v, want 0.3", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("SetParams with wrong length should panic")
		}
	}()
	n.SetParams(xorParams[:3])
}

// TestNetworkXOR tests XOR learning with full-batch accumulation.
func TestNetworkXOR(t *testing.T) {
	n, err := Build(2, []int{3}, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n.SetParams(xorParams)

	trainX := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	trainY := [][]float64{{0}, {1}, {1}, {0}}

	first, err := n.Fit(trainX, trainY, FitConfig{Epochs: 1, Rate: 5})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	last, err := n.Fit(trainX, trainY, FitConfig{Epochs: 1999, Rate: 5})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if last >= first {
		t.Errorf("loss did not decrease: first %v, last %v", first, last)
	}

	tolerance := 0.1
	for i, x := range trainX {
		output, _ := n.Evaluate(x)
		if math.Abs(output[0]-trainY[i][0]) > tolerance {
			t.Errorf("XOR%v = %v, want near %v", x, output[0], trainY[i][0])
		}
	}
}
