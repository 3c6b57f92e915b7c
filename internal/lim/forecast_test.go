package lim

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/climdyn/limfit/internal/synthetic"
)

func fitOscillator(t *testing.T) *Model {
	t.Helper()
	s := synthSeries(t, synthetic.DampedOscillator(0.05, 20), synthetic.IsotropicNoise(2, 1), 8000, 13)
	model, err := Fit(s, 1, DefaultTolerances(), []int{2})
	require.NoError(t, err)
	return model
}

func TestForecastMeanDecays(t *testing.T) {
	model := fitOscillator(t)
	fc := model.Forecaster()

	x0 := []float64{1, 0}
	short, err := fc.Mean(x0, 1)
	require.NoError(t, err)
	long, err := fc.Mean(x0, 200)
	require.NoError(t, err)

	// Lead 0 is the identity map.
	same, err := fc.Mean(x0, 0)
	require.NoError(t, err)
	require.InDeltaSlice(t, x0, same, 1e-12)

	normOf := func(v []float64) float64 {
		return mat.Norm(mat.NewVecDense(len(v), v), 2)
	}
	require.Less(t, normOf(long), normOf(short), "damped forecast must relax toward climatology")
	require.Less(t, normOf(long), 1e-3)
}

func TestForecastErrorCovarianceGrowth(t *testing.T) {
	model := fitOscillator(t)
	fc := model.Forecaster()

	zero, err := fc.ErrorCovariance(0)
	require.NoError(t, err)
	mid, err := fc.ErrorCovariance(5)
	require.NoError(t, err)
	sat, err := fc.ErrorCovariance(500)
	require.NoError(t, err)

	n := model.C0.SymmetricDim()
	for i := 0; i < n; i++ {
		require.InDelta(t, 0, zero.At(i, i), 1e-10, "no error at lead 0")
		require.Greater(t, mid.At(i, i), 0.0)
		// Saturation at climatological variance.
		require.InDelta(t, model.C0.At(i, i), sat.At(i, i), 1e-6*model.C0.At(i, i)+1e-9)
	}
}

func TestForecastEnsembleMatchesMean(t *testing.T) {
	model := fitOscillator(t)
	fc := model.Forecaster()

	states := mat.NewDense(2, 3, []float64{
		1, 0, -2,
		0, 1, 0.5,
	})
	out, err := fc.Ensemble(states, 3)
	require.NoError(t, err)

	for j := 0; j < 3; j++ {
		x0 := []float64{states.At(0, j), states.At(1, j)}
		mean, err := fc.Mean(x0, 3)
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			require.InDelta(t, mean[i], out.At(i, j), 1e-12)
		}
	}
}

func TestForecastRejectsBadInput(t *testing.T) {
	model := fitOscillator(t)
	fc := model.Forecaster()

	_, err := fc.Mean([]float64{1, 2, 3}, 1)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = fc.Propagator(-1)
	require.ErrorIs(t, err, ErrInvalidLag)

	_, err = fc.Ensemble(mat.NewDense(3, 2, nil), 1)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}
