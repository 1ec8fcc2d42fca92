// Package checkin turns free-text morning messages into structured check-in
// records. A strict template parser runs first; a generative extractor with a
// validated JSON contract is the fallback.
package checkin

// Checkin is one morning self-report. Numeric fields are pointers: a nil
// field means the user did not report it, which is distinct from reporting
// zero. Defaulting, if any, belongs to the presentation layer.
type Checkin struct {
	Sleep  *float64 `json:"sleep"`
	Mood   *int     `json:"mood"`
	Energy *int     `json:"energy"`
	Notes  string   `json:"notes"`
}

// HasNumeric reports whether at least one numeric field was reported.
func (c *Checkin) HasNumeric() bool {
	return c.Sleep != nil || c.Mood != nil || c.Energy != nil
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
