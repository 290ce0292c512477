// Package instance reads problems from MPS files through GLPK's parser.
package instance
