package utils

import (
	"os"
	"path/filepath"
)

// ExpandPath resolves a leading ~/ to the user's home directory
func ExpandPath(path string) (string, error) {
	if len(path) > 1 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// FileExists reports whether filename (after ~ expansion) can be stat'ed
func FileExists(filename string) bool {
	path, err := ExpandPath(filename)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
