// Package simplex implements the exact two-phase revised simplex method
// over a matrix.Provider.
//
// The basis inverse is kept as an LU factorization with an eta file of
// updates (package inverse) and refactorized periodically. All arithmetic
// is rational, so the verdicts (optimal, infeasible, unbounded) and the
// optimal vertex are exact; every finite optimum is checked against the
// provider before it is returned.
package simplex
