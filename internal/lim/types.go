package lim

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Series holds a zero-mean multivariate anomaly record: one row per
// variable, one column per timestep. Removing the mean (and any annual
// cycle) is the caller's job; the pipeline borrows the data read-only.
type Series struct {
	IDs  []string
	Data *mat.Dense // nVar x nTime
}

// NewSeries wraps an anomaly matrix with its variable identifiers.
func NewSeries(ids []string, data *mat.Dense) (*Series, error) {
	r, _ := data.Dims()
	if len(ids) != r {
		return nil, &DimensionError{Want: r, Got: len(ids), What: "variable ids"}
	}
	return &Series{IDs: ids, Data: data}, nil
}

// Vars returns the number of variables (matrix rows).
func (s *Series) Vars() int {
	r, _ := s.Data.Dims()
	return r
}

// Steps returns the number of timesteps (matrix columns).
func (s *Series) Steps() int {
	_, c := s.Data.Dims()
	return c
}

// Tolerances are the numeric knobs of the pipeline. The Q-positivity and
// tau-divergence thresholds are analysis-dependent; callers should treat
// the defaults as conservative placeholders and tune per dataset.
type Tolerances struct {
	// CondThreshold is the maximum acceptable condition number of C(0)
	// before inversion is refused.
	CondThreshold float64
	// ImagTolerance bounds the relative imaginary residue permitted when
	// the operator is reconstructed from its complex eigenbasis.
	ImagTolerance float64
	// NyquistTolerance decides when a propagator eigenvalue counts as
	// real and negative.
	NyquistTolerance float64
	// QEigenTolerance is the relative magnitude below which a negative
	// eigenvalue of Q fails the positivity check.
	QEigenTolerance float64
	// TauDivergence is the advisory bound on the relative operator
	// distance in the tau-test.
	TauDivergence float64
	// MinSampleRatio is the minimum ratio of effective samples to
	// variables accepted by Fit.
	MinSampleRatio float64
}

// DefaultTolerances returns the conservative defaults.
func DefaultTolerances() Tolerances {
	return Tolerances{
		CondThreshold:    1e10,
		ImagTolerance:    1e-6,
		NyquistTolerance: 1e-8,
		QEigenTolerance:  1e-8,
		TauDivergence:    0.5,
		MinSampleRatio:   2.0,
	}
}

// WarningKind labels an advisory finding.
type WarningKind string

const (
	WarnTauDivergence      WarningKind = "tau_divergence"
	WarnNyquistMode        WarningKind = "nyquist_mode"
	WarnNegativeQ          WarningKind = "negative_q"
	WarnNumericInstability WarningKind = "numeric_instability"
)

// Warning is an advisory finding. Warnings never abort a fit; they attach
// to the validity report and are the caller's responsibility to act on.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Detail string      `json:"detail"`
	Value  float64     `json:"value"`
}

func finiteMatrix(a mat.Matrix) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
