package volume

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Basis maps voxel index space to model space. Axes holds the three basis vectors
// as rows; Offset is the model-space position of the first voxel corner.
type Basis struct {
	Axes   [3][3]float64 `json:"axes" yaml:"axes"`
	Offset [3]float64    `json:"offset" yaml:"offset"`
}

// IdentityBasis returns a basis spanning dims with unit spacing, centred on the origin.
func IdentityBasis(dims [3]int) Basis {
	var b Basis
	for i := 0; i < 3; i++ {
		b.Axes[i][i] = float64(dims[i])
		b.Offset[i] = -0.5 * float64(dims[i])
	}
	return b
}

// Matrix returns the basis as a gonum dense matrix (rows are axes).
func (b Basis) Matrix() *mat.Dense {
	data := make([]float64, 0, 9)
	for _, row := range b.Axes {
		data = append(data, row[:]...)
	}
	return mat.NewDense(3, 3, data)
}

// Validate rejects degenerate bases.
func (b Basis) Validate() error {
	if det := mat.Det(b.Matrix()); det == 0 {
		return fmt.Errorf("basis is degenerate (determinant is zero)")
	}
	return nil
}

// Extent returns the length of each basis vector.
func (b Basis) Extent() [3]float64 {
	var out [3]float64
	for i, row := range b.Axes {
		out[i] = floats.Norm(row[:], 2)
	}
	return out
}

// Spacing returns the voxel spacing along each axis for the given dimensions.
func (b Basis) Spacing(dims [3]int) [3]float64 {
	extent := b.Extent()
	var out [3]float64
	for i := range out {
		if dims[i] > 0 {
			out[i] = extent[i] / float64(dims[i])
		}
	}
	return out
}

// Equal reports exact equality.
func (b Basis) Equal(other Basis) bool {
	return b == other
}
