// Package logger builds the process-wide logrus logger.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout.  Development environments get the
// text formatter; everything else logs JSON.  Unknown levels fall back to
// info.
func New(env, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	switch strings.ToLower(env) {
	case "dev", "development", "local", "test":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
