package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus with file rotation so every component logs through
// the same sink.
type Logger struct {
	l *logrus.Logger
}

// New creates a logger writing to stdout and a rotated file under dir.
func New(dir, level string) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(dir, "threat-monitor.log"),
			MaxSize:    50, // megabytes
			MaxBackups: 7,
			MaxAge:     28, // days
			Compress:   true,
		}
		l.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return &Logger{l: l}, nil
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{l: l}
}

func (lg *Logger) Debugf(format string, args ...interface{}) { lg.l.Debugf(format, args...) }
func (lg *Logger) Infof(format string, args ...interface{})  { lg.l.Infof(format, args...) }
func (lg *Logger) Warnf(format string, args ...interface{})  { lg.l.Warnf(format, args...) }
func (lg *Logger) Errorf(format string, args ...interface{}) { lg.l.Errorf(format, args...) }
