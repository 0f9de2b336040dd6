package log

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
)

// consoleLogFormatter renders the "objects" field (a slice of arbitrary
// values attached by callers that want structured console output) as
// space-separated JSON, falling back to fallback for everything else.
type consoleLogFormatter struct {
	fallback logrus.Formatter
}

func (f *consoleLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	objects, ok := entry.Data["objects"].([]interface{})
	if !ok {
		return f.fallback.Format(entry)
	}

	parts := make([]string, 0, len(objects))
	for _, obj := range objects {
		b, err := json.Marshal(obj)
		if err != nil {
			continue
		}
		parts = append(parts, string(b))
	}
	return []byte(strings.Join(parts, " ")), nil
}
