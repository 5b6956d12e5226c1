package telemetry

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultAlertThreshold is the temperature at or above which a device is over temperature.
const DefaultAlertThreshold = 90.0

// AlertTimeLayout formats the time an over-temperature report was seen.
const AlertTimeLayout = "2006/01/02 15:04:05"

var reportPattern = regexp.MustCompile(`^(\d+):(\d+):'Temperature':(-?\d+(\.\d+)?)$`)

// Report is a parsed "<deviceID>:<epochMillis>:'Temperature':<value>" string.
type Report struct {
	DeviceID    string
	EpochMillis int64
	Temperature float64
}

// ParseReport parses data, returning ErrMalformedInput when it does not match the format.
func ParseReport(data string) (Report, error) {
	m := reportPattern.FindStringSubmatch(data)
	if m == nil {
		return Report{}, fmt.Errorf("%w: %q", ErrMalformedInput, data)
	}

	millis, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Report{}, fmt.Errorf("%w: timestamp: %w", ErrMalformedInput, err)
	}

	temp, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Report{}, fmt.Errorf("%w: temperature: %w", ErrMalformedInput, err)
	}

	return Report{DeviceID: m[1], EpochMillis: millis, Temperature: temp}, nil
}

// OverTemperature reports whether the reading is at or above threshold.
func (r Report) OverTemperature(threshold float64) bool {
	return r.Temperature >= threshold
}
