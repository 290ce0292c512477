// Package inverse maintains the factorized inverse of a simplex basis.
//
// A Factorization is an LU decomposition with row pivoting of the basis at
// the last refactorization, plus an eta file with one elementary matrix per
// basis change since. Update is cheap and grows the eta file; Refactorize
// rebuilds the LU factors and empties it. The owner decides when to
// refactorize, usually when NeedsRefactor says so.
//
// Arithmetic is exact, so pivot choice only matters for fill-in and speed;
// a missing pivot means the basis is singular, which is reported as
// ErrSingular.
package inverse
