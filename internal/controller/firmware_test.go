package controller

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFirmware(t *testing.T) {
	dir := t.TempDir()
	writeFirmware(t, dir, "coordinator.bin")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFirmware(t, filepath.Join(dir, "nested"), "router.bin")

	t.Run("existing file", func(t *testing.T) {
		got, err := ResolveFirmware(dir, "coordinator.bin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := filepath.Join(dir, "coordinator.bin"); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("file in subdirectory", func(t *testing.T) {
		if _, err := ResolveFirmware(dir, "nested/router.bin"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	rejected := []struct {
		name string
		file string
	}{
		{"missing", "missing.bin"},
		{"empty", ""},
		{"directory", "nested"},
		{"parent traversal", "../coordinator.bin"},
		{"absolute path", "/etc/passwd"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveFirmware(dir, tt.file)
			var notFound *FirmwareNotFoundError
			if !errors.As(err, &notFound) {
				t.Fatalf("err = %v, want *FirmwareNotFoundError", err)
			}
			if notFound.Name != tt.file {
				t.Errorf("Name = %q, want %q", notFound.Name, tt.file)
			}
		})
	}
}
