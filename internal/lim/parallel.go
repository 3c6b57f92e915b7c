package lim

import (
	"sync"
)

// BatchResult pairs a candidate lag with its fit outcome.
type BatchResult struct {
	Tau0  int
	Model *Model
	Err   error
}

// FitBatch fits independent models for several candidate lags
// concurrently. Each fit owns its own covariance matrices and operator;
// nothing is shared, so the runs need no coordination beyond the join.
func FitBatch(s *Series, tau0s []int, tol Tolerances, multiples []int) []BatchResult {
	results := make([]BatchResult, len(tau0s))

	var wg sync.WaitGroup
	for i, tau := range tau0s {
		wg.Add(1)
		go func(idx, tau0 int) {
			defer wg.Done()
			m, err := Fit(s, tau0, tol, multiples)
			results[idx] = BatchResult{Tau0: tau0, Model: m, Err: err}
		}(i, tau)
	}
	wg.Wait()

	return results
}
