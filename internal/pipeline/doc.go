// Package pipeline composes a simulated capture: lens projection, sky
// polarization, micro-polarizer transmission and sensor digitization.
//
// The pipeline does not own domain logic; it wires the stage packages
// together, seeds their random sources and summarises the result. Batches
// of independent captures run concurrently, each with its own generators.
package pipeline
