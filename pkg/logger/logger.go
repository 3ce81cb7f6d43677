package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = logrus.New()

// Initialize configures the process logger from environment variables:
// LOG_LEVEL (debug/info/warn/error), LOG_FORMAT (json/text) and LOG_FILE
// (optional rotated file beside stdout).
func Initialize() error {
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if os.Getenv("LOG_FORMAT") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}

	return nil
}

// L returns the shared logger instance.
func L() *logrus.Logger {
	return log
}
