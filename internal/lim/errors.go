package lim

import (
	"errors"
	"fmt"
)

// Hard errors abort a fit. Advisory findings are [Warning] values on the
// validity report instead.
var (
	// ErrInsufficientData indicates too few overlapping samples relative
	// to the number of variables and the requested lag.
	ErrInsufficientData = errors.New("lim: insufficient samples for requested lag")

	// ErrSingularCovariance indicates C(0) is ill-conditioned beyond the
	// configured threshold and cannot be inverted safely.
	ErrSingularCovariance = errors.New("lim: zero-lag covariance is singular or ill-conditioned")

	// ErrComplexOperator indicates the reconstructed operator carries a
	// non-negligible imaginary part.
	ErrComplexOperator = errors.New("lim: operator reconstruction left a non-negligible imaginary part")

	// ErrInvalidLag indicates a lag outside the usable range.
	ErrInvalidLag = errors.New("lim: invalid lag")

	// ErrDimensionMismatch indicates incompatible matrix or vector sizes.
	ErrDimensionMismatch = errors.New("lim: dimension mismatch")

	// ErrNonFinite indicates NaN or Inf propagated into a final output.
	ErrNonFinite = errors.New("lim: non-finite values in result")
)

// InsufficientDataError carries the sample bookkeeping behind an
// ErrInsufficientData failure, including the estimated conditioning of
// whatever covariance could still be formed.
type InsufficientDataError struct {
	Samples   int
	Variables int
	Lag       int
	Cond      float64
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%v: %d effective samples for %d variables at lag %d (cond %.3g)",
		ErrInsufficientData, e.Samples, e.Variables, e.Lag, e.Cond)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// SingularCovarianceError reports the condition number that tripped the
// conditioning guard.
type SingularCovarianceError struct {
	Cond      float64
	Threshold float64
}

func (e *SingularCovarianceError) Error() string {
	return fmt.Sprintf("%v: cond %.3g exceeds threshold %.3g", ErrSingularCovariance, e.Cond, e.Threshold)
}

func (e *SingularCovarianceError) Unwrap() error { return ErrSingularCovariance }

// ComplexOperatorError reports the relative imaginary residue left after
// reconstructing L from its complex eigenbasis.
type ComplexOperatorError struct {
	Residual  float64
	Tolerance float64
}

func (e *ComplexOperatorError) Error() string {
	return fmt.Sprintf("%v: relative residue %.3g exceeds tolerance %.3g", ErrComplexOperator, e.Residual, e.Tolerance)
}

func (e *ComplexOperatorError) Unwrap() error { return ErrComplexOperator }

// DimensionError reports a size mismatch between collaborating values.
type DimensionError struct {
	Want int
	Got  int
	What string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: want %d %s, got %d", ErrDimensionMismatch, e.Want, e.What, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }
