package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

func New(env, level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	lvl := logrus.InfoLevel
	if env == "dev" {
		lvl = logrus.DebugLevel
	}
	if level != "" {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			lvl = parsed
		} else {
			l.WithField("level", level).Warn("unknown log level, keeping default")
		}
	}
	l.SetLevel(lvl)
	return l
}

// Module returns an entry tagged with the component name.
func Module(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("module", name)
}
