package controller

import (
	"fmt"
	"os"
	"path/filepath"
)

// FirmwareNotFoundError indicates that a firmware name does not resolve to a readable
// regular file inside the firmware directory.
type FirmwareNotFoundError struct {
	Dir    string
	Name   string
	Reason string
}

func (e *FirmwareNotFoundError) Error() string {
	return fmt.Sprintf("firmware %q not found in %s: %s", e.Name, e.Dir, e.Reason)
}

// ResolveFirmware joins name with dir and checks the result is a readable regular file.
// Names that would escape dir are rejected.
func ResolveFirmware(dir, name string) (string, error) {
	if name == "" {
		return "", &FirmwareNotFoundError{Dir: dir, Name: name, Reason: "empty file name"}
	}
	if !filepath.IsLocal(name) {
		return "", &FirmwareNotFoundError{Dir: dir, Name: name, Reason: "path escapes firmware directory"}
	}

	path := filepath.Join(dir, name)

	info, err := os.Stat(path)
	if err != nil {
		return "", &FirmwareNotFoundError{Dir: dir, Name: name, Reason: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return "", &FirmwareNotFoundError{Dir: dir, Name: name, Reason: "not a regular file"}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &FirmwareNotFoundError{Dir: dir, Name: name, Reason: err.Error()}
	}
	f.Close()

	return path, nil
}
