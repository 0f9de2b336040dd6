// Package types holds small value types shared between the configuration
// and CLI layers, mirroring the role go.k6.io/k6/lib/types plays for k6's
// own options.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// NullDuration is a nullable time.Duration, following the same
// Valid-flag convention as gopkg.in/guregu/null.v3's Bool/Int/String.
type NullDuration struct {
	Duration time.Duration
	Valid    bool
}

// NewNullDuration constructs a NullDuration with an explicit validity.
func NewNullDuration(d time.Duration, valid bool) NullDuration {
	return NullDuration{Duration: d, Valid: valid}
}

// NullDurationFrom constructs a valid NullDuration.
func NullDurationFrom(d time.Duration) NullDuration {
	return NewNullDuration(d, true)
}

// String renders the duration the way time.Duration.String does, or the
// empty string when not valid.
func (d NullDuration) String() string {
	if !d.Valid {
		return ""
	}
	return d.Duration.String()
}

// MarshalJSON serializes a valid NullDuration as a Go duration string
// ("30s") and an invalid one as JSON null.
func (d NullDuration) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Duration.String())
}

// UnmarshalJSON accepts a duration string or a bare number of
// nanoseconds; JSON null leaves the value invalid.
func (d *NullDuration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = NullDuration{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = NullDuration{Duration: parsed, Valid: true}
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(data))
	}
	*d = NullDuration{Duration: time.Duration(n), Valid: true}
	return nil
}

// Decode implements the single-string-argument decoder interface
// mstoykov/envconfig looks for on a field type, so a NullDuration can be
// populated directly from an environment variable.
func (d *NullDuration) Decode(value string) error {
	if value == "" {
		*d = NullDuration{}
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	*d = NullDuration{Duration: parsed, Valid: true}
	return nil
}
