package log

// MultiLogger fans a single event out to several loggers, e.g. an slog
// console adapter plus a file logger.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that forwards to all of loggers in order.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log forwards the event to every configured logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		if l != nil {
			l.Log(event)
		}
	}
}

var _ Logger = (*MultiLogger)(nil)
