package lim

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testSeries(t *testing.T, nVar, nTime int, data []float64) *Series {
	t.Helper()
	ids := make([]string, nVar)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	s, err := NewSeries(ids, mat.NewDense(nVar, nTime, data))
	require.NoError(t, err)
	return s
}

func TestCovarianceZeroLagSymmetric(t *testing.T) {
	s := testSeries(t, 2, 6, []float64{
		1, -1, 2, -2, 1, -1,
		0.5, 0.5, -1, 1, -0.5, -1,
	})

	c0, err := ZeroLagCovariance(s)
	require.NoError(t, err)
	require.Equal(t, c0.At(0, 1), c0.At(1, 0))
	require.Greater(t, c0.At(0, 0), 0.0)
	require.Greater(t, c0.At(1, 1), 0.0)
}

func TestCovarianceLagUsesOverlapOnly(t *testing.T) {
	// One variable, so the lag-1 covariance is just the mean of the
	// nTime-1 adjacent products.
	s := testSeries(t, 1, 4, []float64{1, 2, 3, 4})

	c, err := Covariance(s, 1)
	require.NoError(t, err)
	want := (2.0*1 + 3.0*2 + 4.0*3) / 3.0
	require.InDelta(t, want, c.At(0, 0), 1e-12)
}

func TestCovarianceIdempotent(t *testing.T) {
	s := testSeries(t, 2, 50, nil)
	for i := 0; i < 2; i++ {
		for j := 0; j < 50; j++ {
			s.Data.Set(i, j, float64((i+1)*(j%7))-3)
		}
	}

	a, err := Covariance(s, 3)
	require.NoError(t, err)
	b, err := Covariance(s, 3)
	require.NoError(t, err)
	require.True(t, mat.Equal(a, b), "repeated estimation must be bit-identical")
}

func TestCovarianceInsufficientData(t *testing.T) {
	// 50 variables, 5 timesteps: rank deficient however you slice it.
	s := testSeries(t, 50, 5, nil)

	_, err := Covariance(s, 0)
	require.ErrorIs(t, err, ErrInsufficientData)

	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	require.Equal(t, 5, ide.Samples)
	require.Equal(t, 50, ide.Variables)
	require.True(t, ide.Cond > 1e15, "rank-deficient estimate must report unbounded conditioning")
}

func TestCovarianceInvalidLag(t *testing.T) {
	s := testSeries(t, 1, 10, nil)

	_, err := Covariance(s, -1)
	require.ErrorIs(t, err, ErrInvalidLag)

	_, err = Covariance(s, 10)
	require.ErrorIs(t, err, ErrInvalidLag)
}

func TestNewSeriesIDMismatch(t *testing.T) {
	_, err := NewSeries([]string{"only_one"}, mat.NewDense(2, 4, nil))
	require.ErrorIs(t, err, ErrDimensionMismatch)
}
