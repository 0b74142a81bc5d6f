package task

import "log/slog"

// cronLogger adapts slog to cron.Logger. Cron logs every schedule and wake
// up at info level, those go to debug.
type cronLogger struct {
	logger *slog.Logger
}

func newCronLogger(logger *slog.Logger) *cronLogger {
	return &cronLogger{logger: logger.With(slog.String("component", "cron"))}
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
