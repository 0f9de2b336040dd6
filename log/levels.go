package log

import "github.com/sirupsen/logrus"

// parseLevels returns every logrus.Level at or above the severity named by
// level, in logrus.AllLevels order (most severe first).
func parseLevels(level string) ([]logrus.Level, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logrus.AllLevels[:lvl+1], nil
}
