package lim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Forecaster propagates states forward under the fitted deterministic
// operator. Forecast uncertainty grows with lead time and saturates at
// the climatological covariance C(0).
type Forecaster struct {
	l  *mat.Dense
	c0 *mat.SymDense
}

// NewForecaster builds a forecaster from the fitted operator and the
// zero-lag covariance.
func NewForecaster(l *mat.Dense, c0 *mat.SymDense) *Forecaster {
	return &Forecaster{l: l, c0: c0}
}

// Propagator returns exp(L*lead), the deterministic map from analysis
// time to lead time. Lead is in timesteps and need not be an integer.
func (f *Forecaster) Propagator(lead float64) (*mat.Dense, error) {
	if lead < 0 {
		return nil, fmt.Errorf("%w: lead time must be >= 0, got %g", ErrInvalidLag, lead)
	}
	var scaled mat.Dense
	scaled.Scale(lead, f.l)
	var prop mat.Dense
	prop.Exp(&scaled)
	if !finiteMatrix(&prop) {
		return nil, fmt.Errorf("%w: propagator at lead %g", ErrNonFinite, lead)
	}
	return &prop, nil
}

// Mean computes the deterministic forecast exp(L*lead) x0.
func (f *Forecaster) Mean(x0 []float64, lead float64) ([]float64, error) {
	n, _ := f.l.Dims()
	if len(x0) != n {
		return nil, &DimensionError{Want: n, Got: len(x0), What: "state components"}
	}
	prop, err := f.Propagator(lead)
	if err != nil {
		return nil, err
	}
	var out mat.VecDense
	out.MulVec(prop, mat.NewVecDense(n, x0))
	res := make([]float64, n)
	copy(res, out.RawVector().Data)
	return res, nil
}

// Ensemble applies the same propagator to every column of a state matrix
// (nVar x nMembers), forecasting a batch of initial conditions at once.
func (f *Forecaster) Ensemble(states *mat.Dense, lead float64) (*mat.Dense, error) {
	n, _ := f.l.Dims()
	if r, _ := states.Dims(); r != n {
		return nil, &DimensionError{Want: n, Got: r, What: "rows in ensemble matrix"}
	}
	prop, err := f.Propagator(lead)
	if err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Mul(prop, states)
	return &out, nil
}

// ErrorCovariance returns the forecast-error covariance
//
//	E(lead) = C(0) - exp(L*lead) C(0) exp(L*lead)^T
//
// which vanishes at lead 0 and saturates at the climatological variance
// as lead grows.
func (f *Forecaster) ErrorCovariance(lead float64) (*mat.SymDense, error) {
	prop, err := f.Propagator(lead)
	if err != nil {
		return nil, err
	}
	n := f.c0.SymmetricDim()

	var pc, pcp mat.Dense
	pc.Mul(prop, f.c0)
	pcp.Mul(&pc, prop.T())

	e := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := f.c0.At(i, j) - 0.5*(pcp.At(i, j)+pcp.At(j, i))
			e.SetSym(i, j, v)
		}
	}
	return e, nil
}
