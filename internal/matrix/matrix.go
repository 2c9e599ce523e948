package matrix

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

const (
	MinCell = -128
	MaxCell = 127
)

var (
	ErrCellOutOfRange = errors.New("matrix: cell out of wire range")
	ErrNotSquare      = errors.New("matrix: not square")
)

// Matrix is a square grid of signed integers, indexed [row][col].
type Matrix [][]int

// New returns an n x n zero matrix.
func New(n int) Matrix {
	if n < 0 {
		n = 0
	}
	m := make(Matrix, n)
	cells := make([]int, n*n)
	for i := range m {
		m[i] = cells[i*n : (i+1)*n : (i+1)*n]
	}
	return m
}

// Random fills an n x n matrix with cells in [0, 99].
func Random(n int, rng *rand.Rand) Matrix {
	m := New(n)
	for i := range m {
		for j := range m[i] {
			m[i][j] = rng.Intn(100)
		}
	}
	return m
}

// Size returns N.
func (m Matrix) Size() int {
	return len(m)
}

// CheckSquare reports the first row whose length differs from N.
func (m Matrix) CheckSquare() error {
	n := len(m)
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrNotSquare, i, len(row), n)
		}
	}
	return nil
}

// Validate checks squareness and the wire cell range.
func (m Matrix) Validate() error {
	if err := m.CheckSquare(); err != nil {
		return err
	}
	for i, row := range m {
		for j, v := range row {
			if v < MinCell || v > MaxCell {
				return fmt.Errorf("%w: [%d][%d]=%d", ErrCellOutOfRange, i, j, v)
			}
		}
	}
	return nil
}

func (m Matrix) Equal(other Matrix) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if len(m[i]) != len(other[i]) {
			return false
		}
		for j := range m[i] {
			if m[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// String renders one row per line with space separated cells.
func (m Matrix) String() string {
	var b strings.Builder
	for i, row := range m {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, v := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(v))
		}
	}
	return b.String()
}
