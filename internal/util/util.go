// internal/util/util.go
package util

import (
	"os"
	"path/filepath"
	"unicode/utf8"
)

// WriteFile writes data to path with 0o644 permissions, creating parent
// directories as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// TruncateLeft keeps the last maxRunes-1 runes of text behind a leading
// ellipsis, so the tail of a long path stays readable.
func TruncateLeft(text string, maxRunes int) string {
	if maxRunes <= 1 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return "…" + string(runes[len(runes)-maxRunes+1:])
}
