package recommend

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	maxIrrigationCode     = 5
	defaultIrrigationCode = 2
)

// legacyFrequencies maps the keyword encoding used by older clients onto
// times-per-season codes.
var legacyFrequencies = map[string]int{
	"daily":     5,
	"weekly":    4,
	"bi-weekly": 3,
	"monthly":   2,
	"seasonal":  1,
}

// IrrigationCode parses a frequency into a band code in [0, 5]. Values above 5
// collapse to 5; negative, empty or unrecognised values become 2.
func IrrigationCode(freq string) int {
	s := strings.ToLower(strings.TrimSpace(freq))
	if code, ok := legacyFrequencies[s]; ok {
		return code
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultIrrigationCode
	}
	if n > maxIrrigationCode {
		return maxIrrigationCode
	}
	return n
}

// IsLegacyFrequency reports whether freq uses the keyword encoding.
func IsLegacyFrequency(freq string) bool {
	_, ok := legacyFrequencies[strings.ToLower(strings.TrimSpace(freq))]
	return ok
}

// Band returns the irrigation band for a parsed code.
func (t *Tables) Band(code int) IrrigationBand {
	var def IrrigationBand
	for _, b := range t.Irrigation {
		if b.Code == code {
			return b
		}
		if b.Code == defaultIrrigationCode {
			def = b
		}
	}
	return def
}

// IrrigationAdvice returns the watering plan for a frequency string.
func (t *Tables) IrrigationAdvice(freq string) Irrigation {
	code := IrrigationCode(freq)
	b := t.Band(code)
	return Irrigation{
		Frequency:        frequencyLabel(code, b.Name),
		Method:           b.Method,
		WaterRequirement: b.WaterRequirement,
		Timing:           b.Timing,
		Tips:             append([]string(nil), b.Tips...),
	}
}

func frequencyLabel(code int, band string) string {
	if code == maxIrrigationCode {
		return fmt.Sprintf("%s (%d+ times per season)", band, code)
	}
	if code == 1 {
		return fmt.Sprintf("%s (1 time per season)", band)
	}
	return fmt.Sprintf("%s (%d times per season)", band, code)
}
