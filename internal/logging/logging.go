// Package logging adapts zap and logrus to the codec's Logger interface.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tuomass/lsbsteg-go/pkg/lsbsteg"
)

// Supported backends
const (
	BackendZap    = "zap"
	BackendLogrus = "logrus"
)

var (
	// ErrUnknownBackend indicates the backend name is not zap or logrus
	ErrUnknownBackend = errors.New("unknown log backend")
	// ErrUnknownLevel indicates the level name is not recognised
	ErrUnknownLevel = errors.New("unknown log level")
)

// New builds a logger for backend writing to w at the given level.
// The returned func flushes buffered output.
func New(backend, level string, w io.Writer) (lsbsteg.Logger, func() error, error) {
	if level == "" {
		level = "info"
	}
	switch strings.ToLower(backend) {
	case "", BackendZap:
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
		}
		enc := zap.NewDevelopmentEncoderConfig()
		enc.TimeKey = ""
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
		l := zap.New(core)
		return ZapLogger{L: l}, l.Sync, nil
	case BackendLogrus:
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
		}
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
		return LogrusLogger{E: logrus.NewEntry(l)}, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
