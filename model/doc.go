// Package model holds a linear program in general form:
//
//	minimize (or maximize)  c·x + c0
//	subject to              lower_i <= A_i·x <= upper_i   for every row i
//	                        l_j <= x_j <= u_j             for every column j
//
// where any bound may be infinite. Construction rejects inconsistent bounds.
// Presolve reduces a Model in place and keeps a Reductions record from which
// FullSolution lifts a reduced solution back to the original columns; the
// Solution type is the record handed to callers.
package model
