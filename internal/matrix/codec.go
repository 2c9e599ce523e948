package matrix

// Encode flattens m row-major into one byte per cell.
func Encode(m Matrix) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	n := len(m)
	out := make([]byte, 0, n*n)
	for _, row := range m {
		for _, v := range row {
			out = append(out, byte(int8(v)))
		}
	}
	return out, nil
}

// Decode rebuilds an N x N matrix, N = floor(sqrt(len(b))), widening each byte
// as a signed 8-bit value. Bytes beyond N*N are ignored.
func Decode(b []byte) Matrix {
	n := SideFor(len(b))
	m := New(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m[i][j] = int(int8(b[i*n+j]))
		}
	}
	return m
}

// SideFor returns floor(sqrt(cells)).
func SideFor(cells int) int {
	if cells <= 0 {
		return 0
	}
	// Newton iteration on integers avoids float rounding at large sizes.
	x := cells
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + cells/x) / 2
	}
	return x
}
