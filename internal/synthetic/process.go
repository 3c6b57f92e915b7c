package synthetic

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Process generates a discrete linear stochastic recursion
//
//	x(t+1) = A x(t) + eps,  eps ~ N(0, Sigma)
//
// with seeded noise, the ground truth against which estimation is tested.
type Process struct {
	A     *mat.Dense
	Sigma *mat.SymDense

	chol   mat.TriDense
	normal distuv.Normal
}

// New builds a process from a propagator and a noise covariance. Sigma
// must be positive definite so correlated noise can be drawn through its
// Cholesky factor.
func New(a *mat.Dense, sigma *mat.SymDense, seed uint64) (*Process, error) {
	n, c := a.Dims()
	if n != c {
		return nil, fmt.Errorf("synthetic: propagator must be square, got %dx%d", n, c)
	}
	if sigma.SymmetricDim() != n {
		return nil, fmt.Errorf("synthetic: noise covariance size %d does not match propagator size %d", sigma.SymmetricDim(), n)
	}

	var chol mat.Cholesky
	if !chol.Factorize(sigma) {
		return nil, errors.New("synthetic: noise covariance is not positive definite")
	}

	p := &Process{A: a, Sigma: sigma}
	chol.LTo(&p.chol)
	p.normal = distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed)}
	return p, nil
}

// Dim returns the state dimension.
func (p *Process) Dim() int {
	n, _ := p.A.Dims()
	return n
}

// Run generates a realization of the given length after discarding burn
// leading steps, so the record starts near statistical stationarity.
// The result is laid out like an anomaly series: one row per variable,
// one column per timestep.
func (p *Process) Run(steps, burn int) *mat.Dense {
	n := p.Dim()
	out := mat.NewDense(n, steps, nil)

	x := mat.NewVecDense(n, nil)
	z := mat.NewVecDense(n, nil)
	eps := mat.NewVecDense(n, nil)

	for t := -burn; t < steps; t++ {
		for i := 0; i < n; i++ {
			z.SetVec(i, p.normal.Rand())
		}
		eps.MulVec(&p.chol, z)
		x.MulVec(p.A, x)
		x.AddVec(x, eps)
		if t >= 0 {
			for i := 0; i < n; i++ {
				out.Set(i, t, x.AtVec(i))
			}
		}
	}
	return out
}

// StationaryCovariance iterates the discrete Lyapunov recursion
// C <- A C A^T + Sigma to its fixed point, the covariance the process
// relaxes to. Returns nil if the propagator is not contractive enough to
// converge within the iteration budget.
func (p *Process) StationaryCovariance() *mat.SymDense {
	n := p.Dim()
	c := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c.Set(i, j, p.Sigma.At(i, j))
		}
	}

	var ac, acat, next mat.Dense
	for iter := 0; iter < 10000; iter++ {
		ac.Mul(p.A, c)
		acat.Mul(&ac, p.A.T())
		next.Add(&acat, p.Sigma)

		var diff mat.Dense
		diff.Sub(&next, c)
		c.CloneFrom(&next)
		if mat.Norm(&diff, 2) < 1e-14*math.Max(1, mat.Norm(c, 2)) {
			sym := mat.NewSymDense(n, nil)
			for i := 0; i < n; i++ {
				for j := i; j < n; j++ {
					sym.SetSym(i, j, 0.5*(c.At(i, j)+c.At(j, i)))
				}
			}
			return sym
		}
	}
	return nil
}

// DampedOscillator returns the one-step propagator of a two-variable
// damped oscillation: decay is the per-step damping rate, period the
// oscillation period in timesteps. Its continuous generator is
// [[-decay, -omega], [omega, -decay]] with omega = 2*pi/period.
func DampedOscillator(decay, period float64) *mat.Dense {
	r := math.Exp(-decay)
	omega := 2 * math.Pi / period
	return mat.NewDense(2, 2, []float64{
		r * math.Cos(omega), -r * math.Sin(omega),
		r * math.Sin(omega), r * math.Cos(omega),
	})
}

// Decay returns a diagonal propagator with uniform per-step decay rate:
// n independent AR(1) variables, continuous generator -rate * I.
func Decay(n int, rate float64) *mat.Dense {
	a := mat.NewDense(n, n, nil)
	r := math.Exp(-rate)
	for i := 0; i < n; i++ {
		a.Set(i, i, r)
	}
	return a
}

// RandomStable returns a dense random propagator rescaled to the given
// spectral radius, which must lie in (0, 1) for a stationary process.
func RandomStable(n int, radius float64, seed uint64) (*mat.Dense, error) {
	if radius <= 0 || radius >= 1 {
		return nil, fmt.Errorf("synthetic: spectral radius must be in (0, 1), got %g", radius)
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed)}
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, normal.Rand())
		}
	}

	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return nil, errors.New("synthetic: eigendecomposition of random propagator failed")
	}
	rho := 0.0
	for _, v := range eig.Values(nil) {
		rho = math.Max(rho, math.Hypot(real(v), imag(v)))
	}
	if rho == 0 {
		return nil, errors.New("synthetic: random propagator is nilpotent")
	}
	a.Scale(radius/rho, a)
	return a, nil
}

// IsotropicNoise returns sigma^2 * I as a noise covariance.
func IsotropicNoise(n int, sigma float64) *mat.SymDense {
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		s.SetSym(i, i, sigma*sigma)
	}
	return s
}
