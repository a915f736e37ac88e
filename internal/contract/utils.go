package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Repository outcome labels.
const (
	ReadyValue   = "Ready"   // Metrics were computed
	TimeoutValue = "Timeout" // Repository never became ready
	UnknownValue = "Unknown" // No repository could be derived
)

// Color variables for console output.
var (
	ReadyColor   = color.New(color.FgGreen, color.Bold)
	TimeoutColor = color.New(color.FgRed, color.Bold)
	UnknownColor = color.New(color.FgYellow)
)

// GetPlainLabel returns the outcome label of a package entry.
func GetPlainLabel(hasRepository, hasMetrics bool) string {
	switch {
	case hasMetrics:
		return ReadyValue
	case hasRepository:
		return TimeoutValue
	default:
		return UnknownValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(hasRepository, hasMetrics bool) string {
	text := GetPlainLabel(hasRepository, hasMetrics)

	switch text {
	case ReadyValue:
		return ReadyColor.Sprint(text)
	case TimeoutValue:
		return TimeoutColor.Sprint(text)
	default:
		return UnknownColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output.
// An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".grimoirelab_metrics_history.db"
	}
	return filepath.Join(homeDir, ".grimoirelab_metrics_history.db")
}

// TruncateText truncates s to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseS3URI splits an s3://bucket/key URI into bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("invalid S3 URI %q: must start with s3://", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid S3 URI %q: expected s3://bucket/key", uri)
	}
	return bucket, key, nil
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
