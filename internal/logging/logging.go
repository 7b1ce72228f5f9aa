// Package logging provides per-component structured loggers backed by
// logrus. All components share one root logger and configuration.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if lvl := os.Getenv("JAT_LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(strings.ToLower(lvl)); err == nil {
			l.SetLevel(parsed)
		}
	}
	return l
}

// NewLogger returns a logger tagged with the given component name.
func NewLogger(component string) *logrus.Entry {
	return root.WithField("component", component)
}

// SetLevel sets the global log level from a string; unknown levels are
// ignored and the current level kept.
func SetLevel(level string) {
	if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		root.SetLevel(parsed)
	}
}
