// Package metrics provides distance and correlation functions used to decide
// whether repeated pacing has reached a limit cycle.
//
//   - [TwoNorm], [MRMS]: distance between two state vectors
//   - [TwoNormTrace], [MRMSTrace]: pointwise distance between two trajectories
//   - [Pearson], [PearsonXY]: product-moment correlation coefficients
//
// MRMS is the primary steady-state metric. Each component difference is
// divided by max(1, |a_i|), so variables of very different magnitude
// (membrane voltage in mV, concentrations in mM) contribute comparably.
//
// Every function is pure. Malformed input yields a *dynamo.DomainError.
package metrics
