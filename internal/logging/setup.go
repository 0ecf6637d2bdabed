package logging

import (
	"io"
	"os"

	"github.com/facilisimo/sorteos/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 30
)

// Setup configures the global logrus logger. When LOG_FILE is set, entries
// go to stderr and to a rotated file; the returned closer releases the file.
func Setup(cfg *config.Config) io.Closer {
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.LogFile == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		LocalTime:  true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, file))
	return file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
