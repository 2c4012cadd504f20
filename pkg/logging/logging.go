package logging

import (
	"github.com/sirupsen/logrus"
)

// Logger is the shared application logger.
var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.Formatter = &logrus.TextFormatter{
		DisableLevelTruncation: true,
		PadLevelText:           true,
		TimestampFormat:        "2006/01/02 15:04:05",
		FullTimestamp:          true,
	}
}

// SetLevel parses and applies a level name ("debug", "info", ...); unknown
// names fall back to info.
func SetLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)
}

// Component returns an entry tagged with the given component name.
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}
