// Package utils holds the hashing helpers shared by the runner and the
// run history.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// HashString returns the hex-encoded sha256 of data.
func HashString(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex-encoded sha256 of a file's contents. Step
// logs are small (the executor buffers them in memory first), so
// reading the whole file is fine.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashString(string(data)), nil
}
