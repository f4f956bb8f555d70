// Package logx is jumbotron's structured logging: a small Logger over zerolog
// whose outputs a Service can swap at runtime, and a Sampler that throttles
// warnings repeated on every display tick.
package logx
