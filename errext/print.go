package errext

import "github.com/sirupsen/logrus"

// Fprint logs err at error level through logger, using Format to derive
// the message and any extra fields. Fprint(logger, nil) is a no-op.
func Fprint(logger logrus.FieldLogger, err error) {
	if err == nil {
		return
	}
	message, fields := Format(err)
	logger.WithFields(logrus.Fields(fields)).Error(message)
}
