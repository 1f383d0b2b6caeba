package patient

import (
	"fmt"
	"math"
	"sort"

	"github.com/nicuwatch/nicudash/internal/pkg/validator"
)

// Envelope is the hard plausible range for one physiological parameter
type Envelope struct {
	Min  float64
	Max  float64
	Unit string
}

// Envelopes holds the plausible range of every parameter that accepts alarm limits.
// Patient-specific limits must fall inside these.
var Envelopes = map[string]Envelope{
	"hr":    {Min: 0, Max: 300, Unit: "bpm"},
	"rr":    {Min: 0, Max: 150, Unit: "/min"},
	"spo2":  {Min: 0, Max: 100, Unit: "%"},
	"temp":  {Min: 25, Max: 45, Unit: "°C"},
	"sbp":   {Min: 0, Max: 200, Unit: "mmHg"},
	"dbp":   {Min: 0, Max: 150, Unit: "mmHg"},
	"map":   {Min: 0, Max: 150, Unit: "mmHg"},
	"fio2":  {Min: 21, Max: 100, Unit: "%"},
	"etco2": {Min: 0, Max: 100, Unit: "mmHg"},
}

var boundNames = [2]string{"low", "high"}

// ValidateAlarmLimits checks every [low, high] tuple against its parameter envelope.
// Values are never clamped. Parameters are reported in sorted order.
func ValidateAlarmLimits(limits AlarmLimits) []validator.ValidationError {
	params := make([]string, 0, len(limits))
	for p := range limits {
		params = append(params, p)
	}
	sort.Strings(params)

	var errs []validator.ValidationError
	for _, param := range params {
		bounds := limits[param]
		env, ok := Envelopes[param]
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   param,
				Tag:     "parameter",
				Message: fmt.Sprintf("%s is not a monitored parameter", param),
			})
			continue
		}
		if len(bounds) != 2 {
			errs = append(errs, validator.ValidationError{
				Field:   param,
				Tag:     "len",
				Message: fmt.Sprintf("%s must be a [low, high] pair", param),
			})
			continue
		}

		inRange := true
		for i, v := range bounds {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < env.Min || v > env.Max {
				inRange = false
				errs = append(errs, validator.ValidationError{
					Field: fmt.Sprintf("%s.%d", param, i),
					Tag:   "range",
					Message: fmt.Sprintf("%s %s limit must be between %g and %g %s",
						param, boundNames[i], env.Min, env.Max, env.Unit),
				})
			}
		}
		if inRange && bounds[0] > bounds[1] {
			errs = append(errs, validator.ValidationError{
				Field:   param,
				Tag:     "order",
				Message: fmt.Sprintf("%s low limit must not exceed high limit", param),
			})
		}
	}
	return errs
}
