// Package models provides excitable-cell kinetics for pacing studies.
//
// Each model implements [dynamo.System], [dynamo.Named] and
// [dynamo.Configurable]. State index 0 is always the membrane voltage
// ([dynamo.VoltageName]) and control index 0 is the stimulus current, which
// adds directly to the voltage equation:
//
//   - [FitzHughNagumo]: cubic excitable system, dimensionless voltage
//   - [MitchellSchaeffer]: two-current model with a voltage-gated inactivation
//   - [AlievPanfilov]: cubic model tuned for cardiac restitution
//
// Time is in milliseconds for every model. Models with dimensionless time
// carry a TimeScale (ms per model time unit) that divides their derivatives.
package models
