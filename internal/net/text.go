package net

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// The text layout is a sequence of layer blocks, input layer first, separated
// by one blank line:
//
//	<node count>
//	<bias>
//	<w0>;<w1>;...;   (outgoing weights in child order, omitted for the output layer)
//	...
//
// Floats use the shortest representation that parses back to the same value.

// Encode writes the network in text form to w.
func (n *Network) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	last := len(n.layers) - 1
	buf := make([]byte, 0, 32)

	for k, layer := range n.layers {
		if k > 0 {
			bw.WriteByte('\n')
		}
		bw.WriteString(strconv.Itoa(len(layer)))
		bw.WriteByte('\n')

		for _, id := range layer {
			node := &n.nodes[id]
			buf = strconv.AppendFloat(buf[:0], node.Bias, 'g', -1, 64)
			bw.Write(buf)
			bw.WriteByte('\n')

			if k == last {
				continue
			}
			for _, wid := range node.Out {
				buf = strconv.AppendFloat(buf[:0], n.weights[wid].Value, 'g', -1, 64)
				bw.Write(buf)
				bw.WriteByte(';')
			}
			bw.WriteByte('\n')
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write network")
	}
	return nil
}

// String returns the network in text form.
func (n *Network) String() string {
	var sb strings.Builder
	_ = n.Encode(&sb)
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (n *Network) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, replacing n entirely.
func (n *Network) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

// Decode reads a network in text form from r.
func Decode(r io.Reader) (*Network, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read network")
	}
	return Parse(string(data))
}

// block is one layer's lines; start is the 1-based line number of its count line.
type block struct {
	start int
	lines []string
}

// Parse reconstructs a network from its text form. Node roles are derived
// from layer position; Build and Initialize are not involved.
func Parse(text string) (*Network, error) {
	blocks, err := splitBlocks(text)
	if err != nil {
		return nil, err
	}

	sizes := make([]int, len(blocks))
	last := len(blocks) - 1
	for k, b := range blocks {
		count, err := strconv.Atoi(strings.TrimSpace(b.lines[0]))
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "line %d: invalid node count %q", b.start, b.lines[0])
		}
		if count < 1 {
			return nil, errors.Wrapf(ErrFormat, "line %d: layer %d has node count %d, need at least 1", b.start, k, count)
		}

		perNode := 2
		if k == last {
			perNode = 1
		}
		if count > len(b.lines) {
			return nil, errors.Wrapf(ErrFormat, "line %d: layer %d declares %d nodes but has only %d lines",
				b.start, k, count, len(b.lines))
		}
		if want := 1 + count*perNode; len(b.lines) != want {
			return nil, errors.Wrapf(ErrFormat, "line %d: layer %d declares %d nodes and needs %d lines, found %d",
				b.start, k, count, want, len(b.lines))
		}
		sizes[k] = count
	}

	// Every weight needs its own ';', so checking separators bounds the arena
	// newNetwork allocates by the length of the text.
	for k := 0; k < last; k++ {
		b := blocks[k]
		for line := 2; line < len(b.lines); line += 2 {
			if got := strings.Count(b.lines[line], ";"); got != sizes[k+1] {
				return nil, errors.Wrapf(ErrFormat, "line %d: expected %d weights, found %d",
					b.start+line, sizes[k+1], got)
			}
		}
	}

	n := newNetwork(sizes)

	// Outgoing weights point into the next layer, so layers are filled from
	// the output layer backwards.
	for k := last; k >= 0; k-- {
		b := blocks[k]
		line := 1
		for _, id := range n.layers[k] {
			node := &n.nodes[id]
			bias, err := parseFloat(b.lines[line], b.start+line)
			if err != nil {
				return nil, err
			}
			node.Bias = bias
			line++

			if k == last {
				continue
			}
			if err := n.parseWeights(node, b.lines[line], b.start+line); err != nil {
				return nil, err
			}
			line++
		}
	}

	return n, nil
}

// splitBlocks is the first pass: it splits the text into blank-line
// separated blocks of non-empty lines.
func splitBlocks(text string) ([]block, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, errors.Wrap(ErrFormat, "empty network text")
	}

	var blocks []block
	lineNo := 1
	for _, raw := range strings.Split(text, "\n\n") {
		lines := strings.Split(raw, "\n")
		for i, l := range lines {
			if strings.TrimSpace(l) == "" {
				return nil, errors.Wrapf(ErrFormat, "line %d: unexpected blank line", lineNo+i)
			}
		}
		blocks = append(blocks, block{start: lineNo, lines: lines})
		lineNo += len(lines) + 1
	}

	if len(blocks) < 2 {
		return nil, errors.Wrapf(ErrFormat, "found %d layer blocks, need at least an input and an output layer", len(blocks))
	}
	return blocks, nil
}

// parseWeights assigns the values of a "w0;w1;...;" line to the node's
// outgoing weights.
func (n *Network) parseWeights(node *Node, line string, lineNo int) error {
	line = strings.TrimSpace(line)
	if !strings.HasSuffix(line, ";") {
		return errors.Wrapf(ErrFormat, "line %d: weight line must end with ';'", lineNo)
	}
	fields := strings.Split(strings.TrimSuffix(line, ";"), ";")
	if len(fields) != len(node.Out) {
		return errors.Wrapf(ErrFormat, "line %d: expected %d weights, found %d", lineNo, len(node.Out), len(fields))
	}
	for i, f := range fields {
		v, err := parseFloat(f, lineNo)
		if err != nil {
			return err
		}
		n.weights[node.Out[i]].Value = v
	}
	return nil
}

// parseFloat accepts decimal literals only: no NaN, Inf, hex or underscores.
func parseFloat(s string, lineNo int) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.TrimLeft(s, "0123456789+-.eE") != "" {
		return 0, errors.Wrapf(ErrFormat, "line %d: invalid number %q", lineNo, s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "line %d: invalid number %q", lineNo, s)
	}
	return v, nil
}
