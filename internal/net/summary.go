package net

import (
	"fmt"
	"io"
	"strings"

	"github.com/FlavioCFOliveira/convnet/internal/layer"
)

// Summary writes a table of the layers, their output shapes and parameter
// counts.
func (m *Model) Summary(w io.Writer) {
	rule := strings.Repeat("_", 65)
	fmt.Fprintln(w, "Model: Sequential")
	fmt.Fprintf(w, "Input shape: %s\n", formatShape(m.inShape))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, strings.Repeat("=", 65))

	for i, l := range m.layers {
		lType := fmt.Sprintf("%T", l)
		if j := strings.LastIndexByte(lType, '.'); j >= 0 {
			lType = lType[j+1:]
		}
		params := 0
		if p, ok := l.(layer.Parametric); ok {
			params = p.NumParams()
		}
		fmt.Fprintf(w, "%-25s %-20s %-10d\n", fmt.Sprintf("%s_%d", lType, i), formatShape(l.OutputShape()), params)
	}
	fmt.Fprintln(w, strings.Repeat("=", 65))
	fmt.Fprintf(w, "Total params: %d\n", m.NumParams())
	fmt.Fprintln(w, rule)
}

func formatShape(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
