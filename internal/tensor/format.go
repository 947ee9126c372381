package tensor

import (
	"fmt"
	"strings"
)

// String renders flat tensors as a bracketed list and matrices row by row.
func (t *Tensor) String() string {
	var sb strings.Builder
	if !t.IsMatrix() {
		sb.WriteByte('[')
		for i := 0; i < t.Size(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%.4g", t.store.Get(i))
		}
		sb.WriteByte(']')
		return sb.String()
	}
	for r := 0; r < t.rows; r++ {
		sb.WriteByte('[')
		for c := 0; c < t.cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%.4g", t.At(r, c))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
