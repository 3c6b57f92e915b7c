package lim

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Model bundles everything a fit produces. All fields are derived,
// created per analysis run and never mutated in place; refitting with a
// different lag or variable set yields a new Model.
type Model struct {
	IDs  []string
	Tau0 int

	C0   *mat.SymDense
	CTau *mat.Dense

	Operator *Operator
	Q        *mat.SymDense

	Modes     []Mode
	QSpectrum []float64

	Report *Report
}

// Forecaster returns a forecaster bound to the fitted operator and
// climatology.
func (m *Model) Forecaster() *Forecaster {
	return NewForecaster(m.Operator.L, m.C0)
}

// Fit runs the full pipeline: lagged covariance statistics, operator and
// noise-covariance estimation, spectral decomposition, and the validity
// battery. Hard numerical failures abort with a diagnostic error;
// advisory findings land on the report and the model is returned anyway.
// A nil multiples slice selects the default tau-test sweep.
func Fit(s *Series, tau0 int, tol Tolerances, multiples []int) (*Model, error) {
	nVar, nTime := s.Data.Dims()
	eff := nTime - tau0
	if minEff := int(tol.MinSampleRatio * float64(nVar)); eff < minEff {
		ide := &InsufficientDataError{Samples: eff, Variables: nVar, Lag: tau0, Cond: math.Inf(1)}
		if c0, err := ZeroLagCovariance(s); err == nil {
			ide.Cond = mat.Cond(c0, 2)
		}
		return nil, ide
	}

	c0, err := ZeroLagCovariance(s)
	if err != nil {
		return nil, err
	}
	ctau, err := Covariance(s, tau0)
	if err != nil {
		return nil, err
	}

	op, err := EstimateOperator(c0, ctau, tau0, tol)
	if err != nil {
		return nil, err
	}
	q := NoiseCovariance(op.L, c0)

	modes, err := OperatorModes(op.L)
	if err != nil {
		return nil, err
	}
	qvals, _, err := NoiseSpectrum(q)
	if err != nil {
		return nil, err
	}

	m := &Model{
		IDs:       append([]string(nil), s.IDs...),
		Tau0:      tau0,
		C0:        c0,
		CTau:      ctau,
		Operator:  op,
		Q:         q,
		Modes:     modes,
		QSpectrum: qvals,
	}
	m.Report = Validate(s, op, q, tol, multiples)
	return m, nil
}
