// Package matrix defines Provider, the capability the simplex engine reads a
// problem through, and its two variants: Standardized, the sparse standard
// form derived from a model.Model, and Dense, a standard-form problem given
// explicitly. The engine does not know which one it is working on, nor
// whether the underlying model was scaled.
package matrix
