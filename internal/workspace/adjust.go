package workspace

import (
	"fmt"
	"strings"
)

// Param identifies one of the six manual adjustment sliders.
type Param string

const (
	ParamBrightness  Param = "brightness"
	ParamContrast    Param = "contrast"
	ParamSaturation  Param = "saturation"
	ParamSharpen     Param = "sharpen"
	ParamVibrance    Param = "vibrance"
	ParamTemperature Param = "temperature"
)

// Params lists the sliders in the order their clauses appear in a derived instruction.
var Params = []Param{ParamBrightness, ParamContrast, ParamSaturation, ParamSharpen, ParamVibrance, ParamTemperature}

// paramRange describes a slider's bounds and its "no change" value.
type paramRange struct {
	Min, Max, Neutral int
}

var paramRanges = map[Param]paramRange{
	ParamBrightness:  {Min: 0, Max: 200, Neutral: 100},
	ParamContrast:    {Min: 0, Max: 200, Neutral: 100},
	ParamSaturation:  {Min: 0, Max: 200, Neutral: 100},
	ParamSharpen:     {Min: 0, Max: 100, Neutral: 0},
	ParamVibrance:    {Min: 0, Max: 200, Neutral: 100},
	ParamTemperature: {Min: 0, Max: 200, Neutral: 100},
}

// Range returns the bounds and neutral value of p.
func Range(p Param) (lo, hi, neutral int, ok bool) {
	r, ok := paramRanges[p]
	return r.Min, r.Max, r.Neutral, ok
}

// Adjustments holds the manual slider values. Brightness, contrast, saturation,
// vibrance and temperature are percentages of the original (neutral 100);
// sharpen is additive (neutral 0).
type Adjustments struct {
	Brightness  int `json:"brightness"`
	Contrast    int `json:"contrast"`
	Saturation  int `json:"saturation"`
	Sharpen     int `json:"sharpen"`
	Vibrance    int `json:"vibrance"`
	Temperature int `json:"temperature"`
}

// NeutralAdjustments returns every slider at its neutral value.
func NeutralAdjustments() Adjustments {
	return Adjustments{
		Brightness:  100,
		Contrast:    100,
		Saturation:  100,
		Sharpen:     0,
		Vibrance:    100,
		Temperature: 100,
	}
}

// Get returns the value of p.
func (a Adjustments) Get(p Param) int {
	switch p {
	case ParamBrightness:
		return a.Brightness
	case ParamContrast:
		return a.Contrast
	case ParamSaturation:
		return a.Saturation
	case ParamSharpen:
		return a.Sharpen
	case ParamVibrance:
		return a.Vibrance
	case ParamTemperature:
		return a.Temperature
	}
	return 0
}

// With returns a copy of a with p set to value. Values outside the slider's
// range are rejected with ErrOutOfRange.
func (a Adjustments) With(p Param, value int) (Adjustments, error) {
	r, ok := paramRanges[p]
	if !ok {
		return a, fmt.Errorf("unknown adjustment %q: %w", p, ErrOutOfRange)
	}
	if value < r.Min || value > r.Max {
		return a, fmt.Errorf("%s must be between %d and %d: %w", p, r.Min, r.Max, ErrOutOfRange)
	}

	switch p {
	case ParamBrightness:
		a.Brightness = value
	case ParamContrast:
		a.Contrast = value
	case ParamSaturation:
		a.Saturation = value
	case ParamSharpen:
		a.Sharpen = value
	case ParamVibrance:
		a.Vibrance = value
	case ParamTemperature:
		a.Temperature = value
	}
	return a, nil
}

// IsNeutral reports whether no slider deviates from its neutral value.
func (a Adjustments) IsNeutral() bool {
	return a == NeutralAdjustments()
}

// TemperatureOffset is the temperature as shown to the user: a signed offset from neutral.
func (a Adjustments) TemperatureOffset() int {
	return a.Temperature - paramRanges[ParamTemperature].Neutral
}

// Clauses returns one natural-language clause per slider that deviates from neutral.
func (a Adjustments) Clauses() []string {
	var clauses []string
	for _, p := range Params {
		v := a.Get(p)
		if v == paramRanges[p].Neutral {
			continue
		}
		switch p {
		case ParamSharpen:
			clauses = append(clauses, fmt.Sprintf("increase sharpness by %d%%", v))
		case ParamTemperature:
			offset := a.TemperatureOffset()
			if offset > 0 {
				clauses = append(clauses, fmt.Sprintf("adjust color temperature to be %d%% warmer", offset))
			} else {
				clauses = append(clauses, fmt.Sprintf("adjust color temperature to be %d%% cooler", -offset))
			}
		default:
			clauses = append(clauses, fmt.Sprintf("set %s to %d%%", p, v))
		}
	}
	return clauses
}

// Instruction builds the editing instruction sent to the image model.
// It returns ErrNoAdjustments when every slider is neutral.
func (a Adjustments) Instruction() (string, error) {
	clauses := a.Clauses()
	if len(clauses) == 0 {
		return "", ErrNoAdjustments
	}
	return "Apply the following adjustments to the image: " + strings.Join(clauses, ", ") +
		". Ensure the result is high-quality and the changes are blended naturally.", nil
}
