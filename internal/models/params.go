package models

import (
	"sort"

	"github.com/san-kum/pacesim/internal/dynamo"
)

func stimulus(u dynamo.Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}

func unknownParam(model, name string, params map[string]float64) error {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return dynamo.Domainf("set param", "%s has no parameter %q (have %v)", model, name, names)
}

func positiveParam(model, name string, value float64) error {
	if value <= 0 {
		return dynamo.Domainf("set param", "%s.%s must be positive, got %g", model, name, value)
	}
	return nil
}
