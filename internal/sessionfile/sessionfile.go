// Package sessionfile reads the on-disk session hint the resolver's
// session-hint strategy consumes. Writing, deleting and otherwise owning the
// session file's persistence layout is an external concern (see spec
// Non-goals); this package only reads what the resolver needs.
package sessionfile

import (
	"encoding/json"

	"github.com/spf13/afero"
)

// Hint is the subset of a persisted session file the resolver consults:
// a WebSocket URL, the port it was reachable on, and an optional PID.
type Hint struct {
	WSURL     string  `json:"ws_url"`
	Port      uint16  `json:"port"`
	PID       *uint32 `json:"pid,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Read loads a session hint from path via fs. ok is false (with a nil error)
// when the file does not exist, matching the resolver's "no hint available,
// fall through" behavior rather than treating a missing file as an error.
func Read(fs afero.Fs, path string) (hint Hint, ok bool, err error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return Hint{}, false, err
	}
	if !exists {
		return Hint{}, false, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Hint{}, false, err
	}

	if err := json.Unmarshal(data, &hint); err != nil {
		return Hint{}, false, err
	}
	return hint, true, nil
}
