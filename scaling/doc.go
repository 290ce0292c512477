// Package scaling balances the magnitudes of a model's coefficients before
// the simplex method runs.
//
// Arithmetic is exact, so scaling does not buy precision; it keeps the
// numerators and denominators of intermediate values small. Factors are
// powers of two and are undone exactly by Record.ScaleBack and
// Record.Unscale.
package scaling
