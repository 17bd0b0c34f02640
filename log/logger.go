package log

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Logger is the logger type handed to every component.
type Logger = logrus.Logger

// Fields is a set of structured log fields.
type Fields = logrus.Fields

const (
	// default log level
	defaultLogLevel = logrus.InfoLevel

	// log file name
	globalLogFileName = "global.log"
	// default log directory
	logDir = "nodelogs"
	// default log file params
	defaultLogMaxSize    = 100  // maximum file size before rotation, in MB
	defaultLogMaxBackups = 3    // maximum number of old log files to keep
	defaultLogMaxAge     = 28   // maximum number of days to retain old log files
	defaultLogCompress   = true // whether to compress the rotated log files using gzip
)

var (
	// Global is the process wide logger used by the CLI and by packages that
	// are not handed a component logger.
	Global *Logger

	// default logfile path
	defaultLogFilePath = "./" + logDir + "/" + globalLogFileName
)

func init() {
	Global = createStandardLogger(defaultLogFilePath, defaultLogLevel.String(), true)
}

// SetGlobalLogger re-targets the global logger to the given file and level.
// An empty file name keeps the default path.
func SetGlobalLogger(logFilename string, logLevel string) {
	if logFilename == "" {
		logFilename = defaultLogFilePath
	}
	Global.SetOutput(io.MultiWriter(newRotatingOutput(logFilename), os.Stdout))

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = defaultLogLevel
	}
	Global.SetLevel(level)
}

// NewLogger creates a component logger writing to its own rotating file.
func NewLogger(logFilename string, logLevel string, opts ...Options) *Logger {
	if logFilename == "" {
		logFilename = defaultLogFilePath
	}
	logger := createStandardLogger(logFilename, logLevel, false)
	for _, opt := range opts {
		opt(logger)
	}
	logger.WithFields(Fields{
		"path":  logFilename,
		"level": logger.GetLevel().String(),
	}).Debug("Component logger started")
	return logger
}

// NewNullLogger returns a logger that discards everything. Used by tests and
// by callers that don't care about output.
func NewNullLogger() *Logger {
	logger := logrus.New()
	WithNullLogger()(logger)
	return logger
}

func newRotatingOutput(logFilename string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilename,
		MaxSize:    defaultLogMaxSize,
		MaxBackups: defaultLogMaxBackups,
		MaxAge:     defaultLogMaxAge,
		Compress:   defaultLogCompress,
	}
}

func createStandardLogger(logFilename string, logLevel string, stdOut bool) *Logger {
	logger := logrus.New()
	output := newRotatingOutput(logFilename)

	if stdOut {
		logger.SetOutput(io.MultiWriter(output, os.Stdout))
	} else {
		logger.SetOutput(output)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		PadLevelText:    true,
		FullTimestamp:   true,
		TimestampFormat: "01-02|15:04:05.000",
	})
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = defaultLogLevel
	}
	logger.SetLevel(level)
	return logger
}

func WithField(key string, val interface{}) *logrus.Entry {
	return Global.WithField(key, val)
}

func WithFields(fields Fields) *logrus.Entry {
	return Global.WithFields(fields)
}

func Debug(keyvals ...interface{}) {
	Global.Debug(keyvals...)
}

func Debugf(msg string, args ...interface{}) {
	Global.Debugf(msg, args...)
}

func Info(keyvals ...interface{}) {
	Global.Info(keyvals...)
}

func Infof(msg string, args ...interface{}) {
	Global.Infof(msg, args...)
}

func Warn(keyvals ...interface{}) {
	Global.Warn(keyvals...)
}

func Warnf(msg string, args ...interface{}) {
	Global.Warnf(msg, args...)
}

func Error(keyvals ...interface{}) {
	Global.Error(keyvals...)
}

func Errorf(msg string, args ...interface{}) {
	Global.Errorf(msg, args...)
}

func Fatal(keyvals ...interface{}) {
	Global.Fatal(keyvals...)
}

func Fatalf(msg string, args ...interface{}) {
	Global.Fatalf(msg, args...)
}
