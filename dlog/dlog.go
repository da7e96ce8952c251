// Package dlog is this module's level-gated structured logging sink,
// backed by logrus.
//
// Grounded on the level-gated Debug/Info/Warn/Error/Fatal idiom in
// leo-cydar-_opendcm's logging helpers, reworked onto logrus so every
// call site gets structured fields instead of formatted strings.
package dlog

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log = newLogger()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel sets the minimum level emitted, by name: "debug", "info", "warn",
// "error", "fatal", or "disabled"/"off" (suppresses everything).
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(level) {
	case "disabled", "off", "none":
		log.SetLevel(logrus.PanicLevel + 1) // above Panic: nothing logs
	case "fatal":
		log.SetLevel(logrus.FatalLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	case "warn", "warning":
		log.SetLevel(logrus.WarnLevel)
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

// Fields is a structured field set attached to a single log entry, e.g.
// Fields{"tag": tag, "vr": vr}.
type Fields = logrus.Fields

func entry() *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return logrus.NewEntry(log)
}

// Debug logs a structured debug-level diagnostic.
func Debug(fields Fields, msg string) { entry().WithFields(fields).Debug(msg) }

// Info logs a structured info-level diagnostic.
func Info(fields Fields, msg string) { entry().WithFields(fields).Info(msg) }

// Warn logs a structured warning-level diagnostic, used across the charset,
// dictionary, parser and walker code for conditions that are recoverable but
// worth a human's attention (an ignored Replace, an element
// ChangeStringEncoding skips, an unresolved character set falling back to
// ASCII).
func Warn(fields Fields, msg string) { entry().WithFields(fields).Warn(msg) }

// Error logs a structured error-level diagnostic.
func Error(fields Fields, msg string) { entry().WithFields(fields).Error(msg) }
