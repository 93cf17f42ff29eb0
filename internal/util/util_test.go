// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "plan.yaml")
	data := []byte("chunks: []\n")

	if err := WriteFile(path, data); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("unexpected file contents: got %q want %q", got, data)
	}
}

func TestTruncateLeft(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "no truncation", in: "src/a.go", max: 10, want: "src/a.go"},
		{name: "ascii truncation", in: "internal/pkg/file.go", max: 8, want: "…file.go"},
		{name: "multibyte truncation", in: "こんにちは/世界.go", max: 5, want: "…界.go"},
		{name: "degenerate width", in: "abc", max: 1, want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateLeft(tt.in, tt.max); got != tt.want {
				t.Fatalf("TruncateLeft(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
