// Package rational provides Rat, the exact number type used by every other
// package of the solver.
//
// Arithmetic never rounds. Values start out in a fixed-width int64
// representation; an operation whose result would overflow it promotes the
// value to an arbitrary-precision math/big representation instead of
// failing, and a result that fits again is demoted. Callers never observe
// the representation except through IsSmall.
package rational
