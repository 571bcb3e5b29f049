package rtc

import (
	"github.com/pion/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type loggerFactory struct {
	level zerolog.Level
}

// NewLoggerFactory lets pion write through the process zerolog logger.
func NewLoggerFactory(level zerolog.Level) logging.LoggerFactory {
	return loggerFactory{level: level}
}

func (f loggerFactory) NewLogger(scope string) logging.LeveledLogger {
	l := log.Logger.With().Str("module", "pion").Str("scope", scope).Logger().Level(f.level)
	return &leveledLogger{l: l}
}

type leveledLogger struct {
	l zerolog.Logger
}

func (l *leveledLogger) Trace(msg string) { l.l.Trace().Msg(msg) }
func (l *leveledLogger) Tracef(format string, args ...interface{}) {
	l.l.Trace().Msgf(format, args...)
}
func (l *leveledLogger) Debug(msg string) { l.l.Debug().Msg(msg) }
func (l *leveledLogger) Debugf(format string, args ...interface{}) {
	l.l.Debug().Msgf(format, args...)
}
func (l *leveledLogger) Info(msg string) { l.l.Info().Msg(msg) }
func (l *leveledLogger) Infof(format string, args ...interface{}) {
	l.l.Info().Msgf(format, args...)
}
func (l *leveledLogger) Warn(msg string) { l.l.Warn().Msg(msg) }
func (l *leveledLogger) Warnf(format string, args ...interface{}) {
	l.l.Warn().Msgf(format, args...)
}
func (l *leveledLogger) Error(msg string) { l.l.Error().Msg(msg) }
func (l *leveledLogger) Errorf(format string, args ...interface{}) {
	l.l.Error().Msgf(format, args...)
}
