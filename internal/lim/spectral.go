package lim

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Mode is one normal mode of the fitted operator. Complex eigenvalues
// occur in conjugate pairs for a real L: the real part sets the decay
// rate, the imaginary part the oscillation frequency.
type Mode struct {
	// Index is the position after sorting by decreasing decay time.
	Index int
	// Eigenvalue of L, per timestep.
	Eigenvalue complex128
	// DecayTime is -1/Re(eigenvalue), in timesteps.
	DecayTime float64
	// Period is 2*pi/|Im(eigenvalue)| for oscillatory modes, 0 for
	// purely decaying ones.
	Period float64
	// Pattern is the spatial structure of the mode (right eigenvector).
	Pattern []complex128
	// Adjoint is the projection structure (row of the inverse eigenbasis),
	// biorthonormal to the patterns: adjoint_i . pattern_j = delta_ij.
	Adjoint []complex128
}

// Oscillatory reports whether the mode carries a nonzero frequency.
func (m Mode) Oscillatory() bool { return m.Period > 0 }

// OperatorModes decomposes L into normal modes, sorted by decreasing
// decay time as is conventional for inverse models. Adjoints come from
// the inverse of the eigenvector basis, so pattern/adjoint pairs are
// biorthonormal by construction.
func OperatorModes(l *mat.Dense) ([]Mode, error) {
	n, c := l.Dims()
	if n != c {
		return nil, &DimensionError{Want: n, Got: c, What: "columns in operator"}
	}

	var eig mat.Eigen
	if !eig.Factorize(l, mat.EigenRight) {
		return nil, fmt.Errorf("%w: eigendecomposition of the operator failed", ErrNonFinite)
	}
	vals := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	vinv, _, err := cInverse(&vecs)
	if err != nil {
		return nil, fmt.Errorf("%w: operator eigenbasis is singular", ErrNonFinite)
	}

	modes := make([]Mode, n)
	for k := 0; k < n; k++ {
		pattern := make([]complex128, n)
		adjoint := make([]complex128, n)
		for i := 0; i < n; i++ {
			pattern[i] = vecs.At(i, k)
			adjoint[i] = vinv.At(k, i)
		}
		m := Mode{
			Eigenvalue: vals[k],
			DecayTime:  decayTime(vals[k]),
			Pattern:    pattern,
			Adjoint:    adjoint,
		}
		if im := imag(vals[k]); im != 0 {
			m.Period = 2 * math.Pi / math.Abs(im)
		}
		modes[k] = m
	}

	sort.SliceStable(modes, func(a, b int) bool {
		return modes[a].DecayTime > modes[b].DecayTime
	})
	for k := range modes {
		modes[k].Index = k
	}
	return modes, nil
}

func decayTime(ev complex128) float64 {
	re := real(ev)
	if re == 0 {
		return math.Inf(1)
	}
	return -1 / re
}

// NoiseSpectrum returns the eigenvalues of Q in ascending order together
// with the corresponding eigenvectors (one per column). The minimum
// eigenvalue is the key validity diagnostic: a negative value means the
// fitted stochastic forcing is unphysical.
func NoiseSpectrum(q *mat.SymDense) ([]float64, *mat.Dense, error) {
	var es mat.EigenSym
	if !es.Factorize(q, true) {
		return nil, nil, fmt.Errorf("%w: symmetric eigendecomposition failed", ErrNonFinite)
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	return vals, &vecs, nil
}
