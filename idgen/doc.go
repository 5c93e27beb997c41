// Package idgen decides how entity keys are generated for a dialect and
// provides the client side UUID generator.
package idgen
