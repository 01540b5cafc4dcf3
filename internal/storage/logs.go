package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogStorage manages saving step output to files
type LogStorage struct {
	BaseDir string
}

// NewLogStorage creates a new log storage handler
func NewLogStorage(baseDir string) *LogStorage {
	return &LogStorage{BaseDir: baseDir}
}

// SaveLog saves the output of one job/step pair and returns the path.
// Filenames carry a timestamp so re-runs never clobber earlier logs.
func (ls *LogStorage) SaveLog(job, step string, output string) (string, error) {
	if err := os.MkdirAll(ls.BaseDir, 0775); err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s_%s.log", sanitize(job), sanitize(step), timestamp)
	filePath := filepath.Join(ls.BaseDir, filename)

	if err := os.WriteFile(filePath, []byte(output), 0644); err != nil {
		return "", err
	}
	return filePath, nil
}

// sanitize removes special characters from job/step names for filenames
func sanitize(name string) string {
	clean := ""
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean += string(r)
		}
	}
	if clean == "" {
		return "step"
	}
	return clean
}
