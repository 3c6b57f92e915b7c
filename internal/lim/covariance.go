package lim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Covariance computes the sample cross-covariance at the given lag:
//
//	C(lag)[i,j] = mean over t of x_i(t+lag) * x_j(t)
//
// using only the nTime-lag overlapping pairs. C(0) is symmetric up to
// roundoff; C(lag) for lag > 0 is generally not. The estimate assumes the
// series already has zero temporal mean per row.
func Covariance(s *Series, lag int) (*mat.Dense, error) {
	nVar, nTime := s.Data.Dims()
	if lag < 0 || lag >= nTime {
		return nil, fmt.Errorf("%w: lag %d outside [0, %d)", ErrInvalidLag, lag, nTime)
	}
	eff := nTime - lag
	if eff <= nVar {
		// Rank-deficient by construction: fewer overlapping samples than
		// variables. Conditioning of the would-be estimate is unbounded.
		return nil, &InsufficientDataError{
			Samples:   eff,
			Variables: nVar,
			Lag:       lag,
			Cond:      math.Inf(1),
		}
	}

	lead := s.Data.Slice(0, nVar, lag, nTime)   // x(t+lag)
	base := s.Data.Slice(0, nVar, 0, nTime-lag) // x(t)

	var c mat.Dense
	c.Mul(lead, base.T())
	c.Scale(1/float64(eff), &c)
	return &c, nil
}

// ZeroLagCovariance computes the contemporaneous covariance C(0) and
// symmetrizes away floating-point asymmetry so the result is usable as a
// mat.Symmetric.
func ZeroLagCovariance(s *Series) (*mat.SymDense, error) {
	c, err := Covariance(s, 0)
	if err != nil {
		return nil, err
	}
	n, _ := c.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(c.At(i, j)+c.At(j, i)))
		}
	}
	return sym, nil
}
