package synthetic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRunShapeAndReproducibility(t *testing.T) {
	a := Decay(3, 0.2)
	sigma := IsotropicNoise(3, 1)

	p1, err := New(a, sigma, 99)
	require.NoError(t, err)
	p2, err := New(a, sigma, 99)
	require.NoError(t, err)

	d1 := p1.Run(200, 50)
	d2 := p2.Run(200, 50)

	r, c := d1.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 200, c)
	require.True(t, mat.Equal(d1, d2), "same seed must reproduce the realization")

	p3, err := New(a, sigma, 100)
	require.NoError(t, err)
	require.False(t, mat.Equal(d1, p3.Run(200, 50)), "different seed must differ")
}

func TestStationaryCovarianceDecay(t *testing.T) {
	// For x(t+1) = r x(t) + eps with Var(eps) = s^2, the stationary
	// variance is s^2 / (1 - r^2).
	rate := 0.1
	p, err := New(Decay(2, rate), IsotropicNoise(2, 1), 1)
	require.NoError(t, err)

	c0 := p.StationaryCovariance()
	require.NotNil(t, c0)

	r := math.Exp(-rate)
	want := 1 / (1 - r*r)
	for i := 0; i < 2; i++ {
		require.InDelta(t, want, c0.At(i, i), 1e-10)
	}
	require.InDelta(t, 0, c0.At(0, 1), 1e-10)
}

func TestDampedOscillatorSpectrum(t *testing.T) {
	a := DampedOscillator(0.05, 20)

	var eig mat.Eigen
	require.True(t, eig.Factorize(a, mat.EigenNone))
	for _, v := range eig.Values(nil) {
		mag := math.Hypot(real(v), imag(v))
		require.InDelta(t, math.Exp(-0.05), mag, 1e-12)
		if imag(v) > 0 {
			require.InDelta(t, 2*math.Pi/20, math.Atan2(imag(v), real(v)), 1e-12)
		}
	}
}

func TestRandomStableSpectralRadius(t *testing.T) {
	a, err := RandomStable(4, 0.9, 7)
	require.NoError(t, err)

	var eig mat.Eigen
	require.True(t, eig.Factorize(a, mat.EigenNone))
	rho := 0.0
	for _, v := range eig.Values(nil) {
		rho = math.Max(rho, math.Hypot(real(v), imag(v)))
	}
	require.InDelta(t, 0.9, rho, 1e-12)

	_, err = RandomStable(4, 1.2, 7)
	require.Error(t, err)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(mat.NewDense(2, 3, nil), IsotropicNoise(2, 1), 1)
	require.Error(t, err)

	_, err = New(Decay(2, 0.1), IsotropicNoise(3, 1), 1)
	require.Error(t, err)

	// Indefinite noise covariance has no Cholesky factor.
	bad := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	_, err = New(Decay(2, 0.1), bad, 1)
	require.Error(t, err)
}
