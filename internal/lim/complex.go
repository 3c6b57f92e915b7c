package lim

import (
	"gonum.org/v1/gonum/mat"
)

// cMul multiplies two complex matrices by explicit accumulation; CDense
// carries no multiply of its own. The caller guarantees conformable
// dimensions.
func cMul(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	_, bc := b.Dims()
	out := mat.NewCDense(ar, bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < bc; j++ {
			var sum complex128
			for k := 0; k < ac; k++ {
				sum += a.At(i, k) * b.At(k, j)
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// cInverse inverts a complex matrix through its real 2n-by-2n embedding
// [[Re, -Im], [Im, Re]], keeping the elimination inside gonum's
// LAPACK-backed real LU. It also reports the 1-norm condition number of
// the embedding, which bounds the conditioning of the complex system.
func cInverse(a *mat.CDense) (*mat.CDense, float64, error) {
	n, c := a.Dims()
	if n != c {
		return nil, 0, &DimensionError{Want: n, Got: c, What: "columns in square matrix"}
	}

	embed := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			embed.Set(i, j, real(v))
			embed.Set(i, j+n, -imag(v))
			embed.Set(i+n, j, imag(v))
			embed.Set(i+n, j+n, real(v))
		}
	}

	cond := mat.Cond(embed, 1)

	var inv mat.Dense
	if err := inv.Inverse(embed); err != nil {
		return nil, cond, err
	}

	out := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, complex(inv.At(i, j), inv.At(i+n, j)))
		}
	}
	return out, cond, nil
}
