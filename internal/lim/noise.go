package lim

import (
	"gonum.org/v1/gonum/mat"
)

// NoiseCovariance solves the stationary fluctuation-dissipation balance
//
//	L C(0) + C(0) L^T + Q = 0
//
// for the stochastic forcing covariance Q, symmetrizing away roundoff
// asymmetry. It always produces a matrix; whether Q is physically valid
// (positive semidefinite) is judged by [Validate], not here.
func NoiseCovariance(l *mat.Dense, c0 *mat.SymDense) *mat.SymDense {
	n := c0.SymmetricDim()

	var lc, cl mat.Dense
	lc.Mul(l, c0)
	cl.Mul(c0, l.T())

	q := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			raw := lc.At(i, j) + cl.At(i, j)
			mirror := lc.At(j, i) + cl.At(j, i)
			q.SetSym(i, j, -0.5*(raw+mirror))
		}
	}
	return q
}
