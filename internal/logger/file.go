package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/builder/internal/models"
)

// FileLogger writes a session's log to <logDir>/run-YYYYMMDD-HHMMSS.log and
// keeps a latest.log symlink pointing at the most recent one. Each file
// starts with a header carrying a random session id so runs from separate
// processes can be told apart.
type FileLogger struct {
	logDir    string
	runLog    *os.File
	runFile   string
	sessionID string
	logLevel  string
	mu        sync.Mutex
}

// NewFileLogger creates a FileLogger in logDir with the given level.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:    logDir,
		runLog:    file,
		runFile:   runFile,
		sessionID: uuid.NewString(),
		logLevel:  normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== Builder Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Session: %s\n", logger.sessionID))
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the log file being written
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// SessionID returns the id written in the log header
func (fl *FileLogger) SessionID() string {
	return fl.sessionID
}

// shouldLog checks if a message at the given level should be logged.
func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

// LogRunResult writes a multi-line block describing the run
func (fl *FileLogger) LogRunResult(result models.RunResult) {
	level := "info"
	status := "SUCCESS"
	if !result.Success() {
		level = "error"
		status = "FAILED"
	}
	if !fl.shouldLog(level) {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Build %s: %s\n", time.Now().Format("15:04:05"), result.Name(), status)
	fmt.Fprintf(&b, "  Source: %s\n", result.Source)
	fmt.Fprintf(&b, "  Destination: %s\n", result.Destination)
	if len(result.Excluded) > 0 {
		fmt.Fprintf(&b, "  Excluded: %s\n", strings.Join(result.Excluded, ", "))
	}
	if result.Cleared {
		b.WriteString("  Destination cleared first\n")
	}
	fmt.Fprintf(&b, "  Entries: %d\n", result.Entries)
	fmt.Fprintf(&b, "  Duration: %s\n", formatDuration(result.Duration))
	if result.Err != nil {
		fmt.Fprintf(&b, "  Error: %v\n", result.Err)
	}
	b.WriteString("\n")

	fl.writeRunLog(b.String())
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}

	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
