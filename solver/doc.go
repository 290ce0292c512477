// Package solver chains the stages of an exact solve: presolve, scaling,
// standardization, the two-phase simplex method and the reconstruction of
// a solution of the model the caller built.
package solver
