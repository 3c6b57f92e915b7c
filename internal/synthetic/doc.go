// Package synthetic generates realizations of known linear stochastic
// processes. It exists so estimation can be tested against ground truth:
// the generator, noise covariance, and stationary statistics of every
// process here are known in closed form or by fixed-point iteration.
package synthetic
