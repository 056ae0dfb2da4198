package kvgraph

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/dd0wney/cluso-batchgraph/pkg/logging"
)

// badgerLogger forwards Badger's printf style logging to a structured logger
type badgerLogger struct {
	l logging.Logger
}

// NewBadgerLogger adapts l for Options.Logger
func NewBadgerLogger(l logging.Logger) badger.Logger {
	return &badgerLogger{l: l.With(logging.Component("badger"))}
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(message(format, args))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(message(format, args))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.l.Info(message(format, args))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(message(format, args))
}

func message(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
