package lim

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// TauCheck is the outcome of re-estimating the operator at one multiple
// of the fitting lag. The raw distances are always reported; Exceeds is
// the advisory judgment against the configured tolerance.
type TauCheck struct {
	Lag                int     `json:"lag"`
	EigenvalueDistance float64 `json:"eigenvalue_distance"`
	OperatorDistance   float64 `json:"operator_distance"`
	Exceeds            bool    `json:"exceeds"`
	Err                string  `json:"err,omitempty"`
}

// Report aggregates the validity battery. It is advisory: a model that
// fails is still returned to the caller, report attached.
type Report struct {
	Tau0           int        `json:"tau0"`
	TauChecks      []TauCheck `json:"tau_checks"`
	TauConsistent  bool       `json:"tau_consistent"`
	NyquistModes   []int      `json:"nyquist_modes,omitempty"`
	NyquistFlag    bool       `json:"nyquist_flag"`
	QEigenvalues   []float64  `json:"q_eigenvalues"`
	MinQEigenvalue float64    `json:"min_q_eigenvalue"`
	NegativeQ      []float64  `json:"negative_q,omitempty"`
	QPositive      bool       `json:"q_positive"`
	Warnings       []Warning  `json:"warnings,omitempty"`
	Passed         bool       `json:"passed"`
}

// Validate runs the diagnostic battery for a fitted operator: the
// tau-test (operator consistency across lag multiples), the Nyquist-mode
// check on the propagator spectrum, and the positivity check on Q.
// Multiples are factors applied to the fitting lag; values <= 1 are
// ignored. A nil slice means the default sweep {2, 3}.
func Validate(s *Series, op *Operator, q *mat.SymDense, tol Tolerances, multiples []int) *Report {
	if multiples == nil {
		multiples = []int{2, 3}
	}
	rep := &Report{Tau0: op.Tau, Warnings: append([]Warning(nil), op.Warnings...)}

	rep.TauConsistent = true
	for _, m := range multiples {
		if m <= 1 {
			continue
		}
		check := tauCheck(s, op, m*op.Tau, tol)
		if check.Exceeds {
			rep.TauConsistent = false
			rep.Warnings = append(rep.Warnings, Warning{
				Kind:   WarnTauDivergence,
				Detail: fmt.Sprintf("operator re-estimated at lag %d diverges", check.Lag),
				Value:  check.OperatorDistance,
			})
		}
		rep.TauChecks = append(rep.TauChecks, check)
	}

	rep.NyquistModes = nyquistIndices(op.GEigenvalues, tol.NyquistTolerance)
	rep.NyquistFlag = len(rep.NyquistModes) > 0
	if rep.NyquistFlag {
		rep.Warnings = append(rep.Warnings, Warning{
			Kind:   WarnNyquistMode,
			Detail: fmt.Sprintf("%d propagator eigenvalue(s) real and negative: oscillation aliased at lag %d", len(rep.NyquistModes), op.Tau),
			Value:  float64(len(rep.NyquistModes)),
		})
	}

	qvals, _, err := NoiseSpectrum(q)
	if err == nil {
		rep.QEigenvalues = qvals
		rep.MinQEigenvalue = qvals[0]
		cut := -tol.QEigenTolerance * math.Abs(qvals[len(qvals)-1])
		for _, v := range qvals {
			if v < cut {
				rep.NegativeQ = append(rep.NegativeQ, v)
			}
		}
		rep.QPositive = len(rep.NegativeQ) == 0
		if !rep.QPositive {
			rep.Warnings = append(rep.Warnings, Warning{
				Kind:   WarnNegativeQ,
				Detail: fmt.Sprintf("%d negative noise-covariance eigenvalue(s)", len(rep.NegativeQ)),
				Value:  rep.MinQEigenvalue,
			})
		}
	} else {
		rep.QPositive = false
		rep.Warnings = append(rep.Warnings, Warning{
			Kind:   WarnNumericInstability,
			Detail: "noise spectrum unavailable: " + err.Error(),
		})
	}

	rep.Passed = rep.TauConsistent && !rep.NyquistFlag && rep.QPositive
	return rep
}

// tauCheck re-estimates the operator independently at the given lag and
// measures its distance to the reference fit. A refit failure is reported
// in the check, not raised: the tau-test is advisory.
func tauCheck(s *Series, ref *Operator, lag int, tol Tolerances) TauCheck {
	check := TauCheck{Lag: lag}

	c0, err := ZeroLagCovariance(s)
	if err != nil {
		check.Err = err.Error()
		check.Exceeds = true
		return check
	}
	ct, err := Covariance(s, lag)
	if err != nil {
		check.Err = err.Error()
		check.Exceeds = true
		return check
	}
	op, err := EstimateOperator(c0, ct, lag, tol)
	if err != nil {
		check.Err = err.Error()
		check.Exceeds = true
		return check
	}

	check.OperatorDistance = relativeFrobenius(op.L, ref.L)
	check.EigenvalueDistance = spectrumDistance(op.L, ref.L)
	check.Exceeds = check.OperatorDistance > tol.TauDivergence
	return check
}

// relativeFrobenius is ||a-b||_F / ||b||_F.
func relativeFrobenius(a, b *mat.Dense) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	denom := mat.Norm(b, 2)
	if denom == 0 {
		return math.Inf(1)
	}
	return mat.Norm(&diff, 2) / denom
}

// spectrumDistance compares the eigenvalue sets of two operators after
// sorting both into the same canonical order, normalized by the mean
// eigenvalue magnitude of the reference.
func spectrumDistance(a, b *mat.Dense) float64 {
	ea, erra := matrixSpectrum(a)
	eb, errb := matrixSpectrum(b)
	if erra != nil || errb != nil || len(ea) != len(eb) {
		return math.Inf(1)
	}
	sortSpectrum(ea)
	sortSpectrum(eb)

	var sum, scale float64
	for k := range ea {
		sum += cmplx.Abs(ea[k] - eb[k])
		scale += cmplx.Abs(eb[k])
	}
	if scale == 0 {
		return math.Inf(1)
	}
	return sum / scale
}

func matrixSpectrum(a *mat.Dense) ([]complex128, error) {
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return nil, ErrNonFinite
	}
	return eig.Values(nil), nil
}

func sortSpectrum(vals []complex128) {
	sort.Slice(vals, func(i, j int) bool {
		if real(vals[i]) != real(vals[j]) {
			return real(vals[i]) < real(vals[j])
		}
		return imag(vals[i]) < imag(vals[j])
	})
}
