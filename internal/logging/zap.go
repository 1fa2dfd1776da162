package logging

import (
	"go.uber.org/zap"

	"github.com/tuomass/lsbsteg-go/pkg/lsbsteg"
)

var _ lsbsteg.Logger = ZapLogger{}

// ZapLogger adapts a *zap.Logger to lsbsteg.Logger.
type ZapLogger struct{ L *zap.Logger }

func (z ZapLogger) Debug(msg string, f lsbsteg.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f lsbsteg.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f lsbsteg.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f lsbsteg.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f lsbsteg.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
