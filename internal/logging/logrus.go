package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/tuomass/lsbsteg-go/pkg/lsbsteg"
)

var _ lsbsteg.Logger = LogrusLogger{}

// LogrusLogger adapts a *logrus.Entry to lsbsteg.Logger.
type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f lsbsteg.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f lsbsteg.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f lsbsteg.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f lsbsteg.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
