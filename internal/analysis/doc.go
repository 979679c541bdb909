// Package analysis characterizes how repeated pacing converges.
//
// The package includes tools for judging the quality of convergence, not
// merely its presence:
//
//   - [FitExponential]: log-linear least-squares fit of y = A*exp(k*x)
//   - [Residuals], [LogDifferences]: deviations of a trace from its final value
//   - [Classifier]: per-variable correlation of log-deviation against pace index
//
// # Exponential Convergence
//
// A state variable relaxing towards its limit-cycle value as a single
// exponential has log-deviations that fall on a straight line, so their
// correlation with the pace index is close to -1:
//
//	verdicts, err := analysis.NewClassifier(names).Classify(buf)
//	for _, v := range verdicts {
//	    if v.Status == analysis.StatusOK && v.PMCC < -0.95 {
//	        // clean exponential approach, decay rate v.Rate per pace
//	    }
//	}
//
// A correlation whose magnitude exceeds 1.001 cannot be produced by valid
// data; Classify reports it as a *dynamo.NumericalAssertionError.
package analysis
