package errext

import "errors"

// Format renders err into a message and a set of structured fields
// suitable for logging. An Exception's StackTrace() is used in place of
// Error(); a HasHint's hint is surfaced as the "hint" field.
func Format(err error) (message string, fields map[string]interface{}) {
	if err == nil {
		return "", nil
	}

	message = err.Error()
	var exception Exception
	if errors.As(err, &exception) {
		message = exception.StackTrace()
	}

	var hinted HasHint
	if errors.As(err, &hinted) {
		fields = map[string]interface{}{"hint": hinted.Hint()}
	}

	return message, fields
}
