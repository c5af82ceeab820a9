package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// LogWriter receives application and SQL logs. It starts as stdout and
// widens to a stdout+file multiwriter once InitLogging has run, so the
// gorm logger built in InitDB picks up both sinks.
var LogWriter io.Writer = os.Stdout

// LogFilePath is where the service appends its log file.
func LogFilePath() string {
	return filepath.Join("logs", "c2c-api.log")
}

// InitLogging opens the log file and points the standard logger at it.
// The returned file handle is closed by the caller on shutdown. When
// the file cannot be created the service keeps logging to stdout only.
func InitLogging() (*os.File, io.Writer) {
	if err := os.MkdirAll(filepath.Dir(LogFilePath()), os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
	}

	logFile, err := os.OpenFile(LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		log.SetOutput(LogWriter)
		return nil, LogWriter
	}

	LogWriter = io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(LogWriter)
	return logFile, LogWriter
}
