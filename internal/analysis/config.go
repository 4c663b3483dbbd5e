package analysis

import (
	"fmt"
	"strconv"
)

// Config value names, as stored per-project in the Config table.
const (
	MinNonSkipTrackLength      = "MIN_NON_SKIP_TRACK_LENGTH"
	MinNonSkipFrequency        = "MIN_NON_SKIP_FREQUENCY_THRESHOLD"
	MinNonSkipFrequencyPercent = "MIN_NON_SKIP_FREQUENCY_PERCENT_THRESHOLD"
	AbsoluteNonSkipFrequency   = "ABSOLUTE_NON_SKIP_FREQUENCY_THRESHOLD"
	SkipDurationErrorMargin    = "SKIP_DURATION_ERROR_MARGIN"
)

// ConfigNames lists every recognized config value, in display order.
var ConfigNames = []string{
	MinNonSkipTrackLength,
	MinNonSkipFrequency,
	MinNonSkipFrequencyPercent,
	AbsoluteNonSkipFrequency,
	SkipDurationErrorMargin,
}

// Thresholds are the parsed per-project tuning knobs for the skip
// classifier.
type Thresholds struct {
	MinNonSkipTrackLength      int64
	MinNonSkipFrequency        int
	MinNonSkipFrequencyPercent float64
	AbsoluteNonSkipFrequency   int
	SkipDurationErrorMargin    float64
}

// DefaultConfig returns the config values a new project starts with.
func DefaultConfig() map[string]string {
	return map[string]string{
		MinNonSkipTrackLength:      "10000",
		MinNonSkipFrequency:        "2",
		MinNonSkipFrequencyPercent: "0.1",
		AbsoluteNonSkipFrequency:   "6",
		SkipDurationErrorMargin:    "0.02",
	}
}

// ThresholdsFromConfig parses the project's stored config values. Every
// name in ConfigNames must be present.
func ThresholdsFromConfig(values map[string]string) (Thresholds, error) {
	var t Thresholds
	var err error

	if t.MinNonSkipTrackLength, err = configInt64(values, MinNonSkipTrackLength); err != nil {
		return t, err
	}
	if t.MinNonSkipFrequency, err = configInt(values, MinNonSkipFrequency); err != nil {
		return t, err
	}
	if t.MinNonSkipFrequencyPercent, err = configFloat(values, MinNonSkipFrequencyPercent); err != nil {
		return t, err
	}
	if t.AbsoluteNonSkipFrequency, err = configInt(values, AbsoluteNonSkipFrequency); err != nil {
		return t, err
	}
	if t.SkipDurationErrorMargin, err = configFloat(values, SkipDurationErrorMargin); err != nil {
		return t, err
	}
	return t, nil
}

// ValidateConfigValue checks that name is a recognized config value and
// that value parses as the right type.
func ValidateConfigValue(name, value string) error {
	switch name {
	case MinNonSkipTrackLength:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("config value %s must be an integer, got %q", name, value)
		}
	case MinNonSkipFrequency, AbsoluteNonSkipFrequency:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("config value %s must be an integer, got %q", name, value)
		}
	case MinNonSkipFrequencyPercent, SkipDurationErrorMargin:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("config value %s must be a number, got %q", name, value)
		}
	default:
		return fmt.Errorf("unknown config value %q", name)
	}
	return nil
}

func configInt64(values map[string]string, name string) (int64, error) {
	raw, ok := values[name]
	if !ok {
		return 0, fmt.Errorf("missing required config value %s", name)
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing config value %s: %w", name, err)
	}
	return parsed, nil
}

func configInt(values map[string]string, name string) (int, error) {
	raw, ok := values[name]
	if !ok {
		return 0, fmt.Errorf("missing required config value %s", name)
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing config value %s: %w", name, err)
	}
	return parsed, nil
}

func configFloat(values map[string]string, name string) (float64, error) {
	raw, ok := values[name]
	if !ok {
		return 0, fmt.Errorf("missing required config value %s", name)
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing config value %s: %w", name, err)
	}
	return parsed, nil
}
