package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/cacheable"
)

// Logger adapts a *logrus.Entry.
type Logger struct{ E *logrus.Entry }

var _ cacheable.Logger = Logger{}

// New wraps l, tagging every line with component=cacheable.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "cacheable")}
}

func (l Logger) Debug(msg string, f cacheable.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f cacheable.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f cacheable.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f cacheable.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
