// Package lim fits and validates linear inverse models.
//
// A linear inverse model approximates a stationary multivariate anomaly
// series as a linear Markov process dx/dt = Lx + noise. The package
// estimates the pieces of that approximation from lagged covariance
// statistics and judges whether the approximation is admissible:
//
//   - [Covariance], [ZeroLagCovariance]: lagged sample covariance C(tau)
//   - [EstimateOperator]: G(tau0) = C(tau0) C(0)^-1 and L = log(G)/tau0
//   - [NoiseCovariance]: forcing covariance Q from the
//     fluctuation-dissipation balance L C(0) + C(0) L^T + Q = 0
//   - [OperatorModes], [NoiseSpectrum]: normal modes, decay times,
//     oscillation periods, Q eigenvalues
//   - [Validate]: tau-test, Nyquist-mode detection, Q positivity
//   - [Forecaster]: exp(L tau) propagation with error covariance
//
// [Fit] chains all of the above and returns a [Model] with the validity
// report attached. The report is advisory: a model that fails a check is
// still returned, and the caller decides whether to trust it.
//
// # Example
//
//	series, _ := lim.NewSeries(ids, data)
//	model, err := lim.Fit(series, 5, lim.DefaultTolerances(), nil)
//	if err != nil {
//	    // hard failure: singular covariance, too little data, ...
//	}
//	if !model.Report.Passed {
//	    // advisory: inspect model.Report before forecasting
//	}
//	fc := model.Forecaster()
//	mean, _ := fc.Mean(x0, 10)
//
// # Concurrency
//
// All estimation is purely computational and synchronous. Individual
// values are not safe for concurrent mutation, but independent fits share
// no state; [FitBatch] runs one goroutine per candidate lag.
package lim
