package lim

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Operator is the fitted deterministic part of the model at a given lag.
// It is immutable once estimated; a different lag requires a fresh
// estimation.
type Operator struct {
	// Tau is the lag (in timesteps) the operator was estimated at.
	Tau int
	// L is the continuous-time generator, (1/tau) log G(tau).
	L *mat.Dense
	// G is the lag-tau Green's function estimate C(tau) C(0)^-1.
	G *mat.Dense
	// GEigenvalues are the eigenvalues of G, in factorization order.
	GEigenvalues []complex128
	// NyquistModes indexes GEigenvalues that are real and negative
	// beyond tolerance: modes aliased at the chosen lag.
	NyquistModes []int
	// ImagResidual is the relative imaginary residue discarded when L
	// was reconstructed from its complex eigenbasis.
	ImagResidual float64
	// Warnings collects numeric-instability advisories raised during
	// estimation.
	Warnings []Warning
}

// HasNyquist reports whether any propagator eigenvalue is real negative.
func (op *Operator) HasNyquist() bool { return len(op.NyquistModes) > 0 }

// EstimateOperator derives the generator L from the zero-lag and lagged
// covariance via the principal matrix logarithm of G = C(tau) C(0)^-1:
// diagonalize G, take the complex log of each eigenvalue, divide by tau,
// and reconstruct in the original basis. Real negative eigenvalues of G
// (Nyquist modes) are recorded, never discarded; where they occur in
// conjugate-degenerate pairs the log branch is split across the pair so
// the reconstruction can stay real.
func EstimateOperator(c0 *mat.SymDense, ctau *mat.Dense, tau int, tol Tolerances) (*Operator, error) {
	if tau <= 0 {
		return nil, fmt.Errorf("%w: operator estimation needs tau > 0, got %d", ErrInvalidLag, tau)
	}
	n := c0.SymmetricDim()
	if r, c := ctau.Dims(); r != n || c != n {
		return nil, &DimensionError{Want: n, Got: r, What: "rows in lagged covariance"}
	}

	cond := mat.Cond(c0, 2)
	if cond > tol.CondThreshold {
		return nil, &SingularCovarianceError{Cond: cond, Threshold: tol.CondThreshold}
	}
	var c0inv mat.Dense
	if err := c0inv.Inverse(c0); err != nil {
		return nil, &SingularCovarianceError{Cond: cond, Threshold: tol.CondThreshold}
	}

	var g mat.Dense
	g.Mul(ctau, &c0inv)

	var eig mat.Eigen
	if !eig.Factorize(&g, mat.EigenRight) {
		return nil, fmt.Errorf("%w: eigendecomposition of the propagator failed", ErrNonFinite)
	}
	gvals := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	op := &Operator{Tau: tau, G: &g, GEigenvalues: gvals}
	op.NyquistModes = nyquistIndices(gvals, tol.NyquistTolerance)
	op.Warnings = spectrumWarnings(gvals)

	rates := make([]complex128, len(gvals))
	for k, v := range gvals {
		rates[k] = cmplx.Log(v) / complex(float64(tau), 0)
	}
	// Negative real eigenvalues sit on the branch cut of the principal
	// log. For degenerate pairs the +i*pi terms would leave a genuinely
	// complex operator; rotating each pair into a conjugate eigenvector
	// basis and splitting the branch across it recovers the real rotation
	// generator. An unpaired negative eigenvalue keeps its +i*pi term and
	// surfaces below as imaginary residue.
	for _, grp := range groupByValue(gvals, op.NyquistModes) {
		for m := 0; m+1 < len(grp); m += 2 {
			realizeNyquistPair(&vecs, rates, grp[m], grp[m+1])
		}
	}

	vinv, basisCond, err := cInverse(&vecs)
	if err != nil {
		return nil, fmt.Errorf("%w: eigenvector basis of the propagator is singular", ErrNonFinite)
	}
	if basisCond > 1e12 {
		op.Warnings = append(op.Warnings, Warning{
			Kind:   WarnNumericInstability,
			Detail: "ill-conditioned eigenvector basis",
			Value:  basisCond,
		})
	}

	diag := mat.NewCDense(n, n, nil)
	for k, r := range rates {
		diag.Set(k, k, r)
	}
	lc := cMul(cMul(&vecs, diag), vinv)

	// L must be real. Validate the imaginary residue explicitly rather
	// than truncating it silently.
	var maxRe, maxIm float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := lc.At(i, j)
			maxRe = math.Max(maxRe, math.Abs(real(v)))
			maxIm = math.Max(maxIm, math.Abs(imag(v)))
		}
	}
	op.ImagResidual = maxIm / math.Max(maxRe, math.SmallestNonzeroFloat64)
	if op.ImagResidual > tol.ImagTolerance {
		return nil, &ComplexOperatorError{Residual: op.ImagResidual, Tolerance: tol.ImagTolerance}
	}

	l := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			l.Set(i, j, real(lc.At(i, j)))
		}
	}
	if !finiteMatrix(l) {
		return nil, fmt.Errorf("%w: operator reconstruction produced NaN or Inf", ErrNonFinite)
	}
	op.L = l
	return op, nil
}

// nyquistIndices returns the indices of eigenvalues that are real and
// negative within tolerance of the real axis.
func nyquistIndices(vals []complex128, tol float64) []int {
	var idx []int
	for k, v := range vals {
		scale := cmplx.Abs(v)
		if scale == 0 {
			continue
		}
		if math.Abs(imag(v)) <= tol*scale && real(v) < -tol*scale {
			idx = append(idx, k)
		}
	}
	return idx
}

// groupByValue partitions the selected eigenvalue indices into runs of
// near-equal values, sorted by real part.
func groupByValue(vals []complex128, idx []int) [][]int {
	if len(idx) == 0 {
		return nil
	}
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.Slice(sorted, func(a, b int) bool {
		return real(vals[sorted[a]]) < real(vals[sorted[b]])
	})
	var groups [][]int
	cur := []int{sorted[0]}
	for _, k := range sorted[1:] {
		prev := vals[cur[len(cur)-1]]
		if cmplx.Abs(vals[k]-prev) <= 1e-6*cmplx.Abs(prev) {
			cur = append(cur, k)
			continue
		}
		groups = append(groups, cur)
		cur = []int{k}
	}
	return append(groups, cur)
}

// realizeNyquistPair rewrites the eigenvectors of a degenerate negative
// real pair as complex conjugates of each other and assigns conjugate log
// branches, so that the pair contributes the real rotation generator
// ln|g|/tau +- i*pi/tau instead of an unbalanced branch-cut term.
func realizeNyquistPair(vecs *mat.CDense, rates []complex128, a, b int) {
	n, _ := vecs.Dims()
	scale := complex(1/math.Sqrt2, 0)
	for i := 0; i < n; i++ {
		va := vecs.At(i, a)
		vb := vecs.At(i, b)
		mixed := (va + 1i*vb) * scale
		vecs.Set(i, a, mixed)
		vecs.Set(i, b, cmplx.Conj(mixed))
	}
	rates[b] = cmplx.Conj(rates[a])
}

// spectrumWarnings flags near-repeated propagator eigenvalues, which make
// the eigenvector basis ill-conditioned.
func spectrumWarnings(vals []complex128) []Warning {
	maxAbs := 0.0
	for _, v := range vals {
		maxAbs = math.Max(maxAbs, cmplx.Abs(v))
	}
	if maxAbs == 0 {
		return nil
	}
	minGap := math.Inf(1)
	clustered := 0
	for i := 0; i < len(vals); i++ {
		for j := i + 1; j < len(vals); j++ {
			gap := cmplx.Abs(vals[i]-vals[j]) / maxAbs
			// Conjugate pairs collapse onto the real axis legitimately;
			// only near-coincident values are suspicious.
			if gap < 1e-10 {
				clustered++
			}
			minGap = math.Min(minGap, gap)
		}
	}
	if clustered == 0 {
		return nil
	}
	return []Warning{{
		Kind:   WarnNumericInstability,
		Detail: fmt.Sprintf("%d near-repeated propagator eigenvalue pair(s)", clustered),
		Value:  minGap,
	}}
}
