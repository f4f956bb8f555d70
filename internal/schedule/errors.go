package schedule

import "fmt"

// ConfigurationError reports a malformed or empty timetable. It is fatal at startup.
type ConfigurationError struct {
	Slot   string // empty when the problem is not slot-specific
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Slot == "" {
		return "timetable: " + e.Reason
	}
	return fmt.Sprintf("timetable: slot %q: %s", e.Slot, e.Reason)
}

// TimeConversionError reports that a slot occurrence could not be placed on the
// reference-zone calendar. The slot is skipped for the current ranking only.
type TimeConversionError struct {
	Slot string
	Time TimeOfDay
	Err  error
}

func (e *TimeConversionError) Error() string {
	return fmt.Sprintf("convert %s for slot %q: %v", e.Time, e.Slot, e.Err)
}

func (e *TimeConversionError) Unwrap() error { return e.Err }
