// internal/gather/gather_test.go
package gather

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := afero.WriteFile(fsys, filepath.FromSlash(name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func newObserved(fsys afero.Fs, maxSize int64) (*Gatherer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return New(fsys, zap.New(core), maxSize), logs
}

func slash(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}
	return out
}

func TestExpandPaths(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"proj/main.go":         "package main",
		"proj/util.go":         "package main",
		"proj/README.md":       "# readme",
		"proj/internal/x/a.go": "package x",
	})
	g := New(fsys, nil, 0)

	got, err := g.ExpandPaths([]string{"proj/*.go", "proj/**/a.go", "missing/*.txt", "proj/README.md"})
	if err != nil {
		t.Fatalf("ExpandPaths: %v", err)
	}
	want := []string{"proj/main.go", "proj/util.go", "proj/internal/x/a.go", "missing/*.txt", "proj/README.md"}
	if !reflect.DeepEqual(slash(got), want) {
		t.Fatalf("ExpandPaths = %v, want %v", slash(got), want)
	}

	if _, err := g.ExpandPaths([]string{"proj/[.go"}); err == nil {
		t.Fatalf("expected an error for a malformed pattern")
	}
}

func TestCandidatesHonoursGitignoreAndHidden(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"proj/.gitignore":        "# build output\n/target/\n*.log\n",
		"proj/main.go":           "package main",
		"proj/debug.log":         "noise",
		"proj/target/out.bin":    "bin",
		"proj/.git/config":       "[core]",
		"proj/.env":              "SECRET=1",
		"proj/src/lib.go":        "package src",
		"proj/src/nested/deep.go": "package nested",
		"other.txt":              "loose file",
	})
	g := New(fsys, nil, 0)

	got, err := g.Candidates([]string{"proj", "other.txt", "proj/main.go"})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	want := []string{"other.txt", "proj/main.go", "proj/src/lib.go", "proj/src/nested/deep.go"}
	if !reflect.DeepEqual(slash(got), want) {
		t.Fatalf("Candidates = %v, want %v", slash(got), want)
	}

	if _, err := g.Candidates([]string{"nope"}); !IsNotExist(err) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestPreselected(t *testing.T) {
	candidates := []string{
		filepath.FromSlash("proj/a.go"),
		filepath.FromSlash("proj/sub/b.go"),
		filepath.FromSlash("projx/c.go"),
		filepath.FromSlash("docs/d.md"),
	}
	got := Preselected(candidates, []string{"proj", filepath.FromSlash("docs/d.md")})
	if !got[candidates[0]] || !got[candidates[1]] || !got[candidates[3]] {
		t.Fatalf("expected proj and docs files preselected: %v", got)
	}
	if got[candidates[2]] {
		t.Fatalf("projx must not match the proj prefix")
	}
}

func TestApplyExcludes(t *testing.T) {
	g, logs := newObserved(afero.NewMemMapFs(), 0)
	paths := []string{
		filepath.FromSlash("proj/main.go"),
		filepath.FromSlash("proj/main_test.go"),
		filepath.FromSlash("proj/vendor/lib/x.go"),
		filepath.FromSlash("proj/docs/guide.md"),
	}

	got, err := g.ApplyExcludes(paths, []string{"**/*_test.go", "vendor/**", "[bad"}, "proj")
	if err != nil {
		t.Fatalf("ApplyExcludes: %v", err)
	}
	want := []string{"proj/main.go", "proj/docs/guide.md"}
	if !reflect.DeepEqual(slash(got), want) {
		t.Fatalf("ApplyExcludes = %v, want %v", slash(got), want)
	}
	if logs.FilterMessage("ignoring invalid exclude pattern").Len() != 1 {
		t.Fatalf("expected one warning for the invalid pattern, got %v", logs.All())
	}
	if len(paths) != 4 {
		t.Fatalf("input slice was modified")
	}

	_, err = g.ApplyExcludes(paths, []string{"[bad", "{open"}, "proj")
	if !errors.Is(err, ErrInvalidExcludes) || !strings.Contains(err.Error(), "[bad") {
		t.Fatalf("expected ErrInvalidExcludes naming the patterns, got %v", err)
	}

	same, err := g.ApplyExcludes(paths, nil, "proj")
	if err != nil || len(same) != len(paths) {
		t.Fatalf("no patterns should keep every path: %v %v", same, err)
	}
}

func TestCollect(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"src/a.go":     "package a\n",
		"src/utf8.txt": "é 中文 ",
		"big.txt":      strings.Repeat("x", 64),
		"blob.bin":     "\xff\xfe\x00\x01",
		"root.md":      "# root",
	})
	g, logs := newObserved(fsys, 32)

	files, err := g.Collect([]string{"src/a.go", "src/utf8.txt", "big.txt", "blob.bin", "root.md"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %+v", len(files), files)
	}
	if files[0].Path != "src/a.go" || files[0].Folder != "src" || files[0].Content != "package a\n" {
		t.Fatalf("unexpected first file: %+v", files[0])
	}
	if files[1].Content != "é 中文 " {
		t.Fatalf("non-ASCII UTF-8 must not be treated as binary: %q", files[1].Content)
	}
	if files[2].Folder != "." {
		t.Fatalf("root file folder = %q", files[2].Folder)
	}
	if logs.FilterMessage("file exceeds max size, skipping").Len() != 1 ||
		logs.FilterMessage("file appears to be binary, skipping").Len() != 1 {
		t.Fatalf("expected size and binary warnings, got %v", logs.All())
	}

	if _, err := g.Collect([]string{"gone.txt"}); !IsNotExist(err) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestCollectWarnsWhenRepairingUTF8(t *testing.T) {
	fsys := afero.NewMemMapFs()
	head := strings.Repeat("a", binarySample)
	writeFiles(t, fsys, map[string]string{
		"late.txt":  head + "\xffz\n",
		"clean.txt": "fine\n",
	})
	g, logs := newObserved(fsys, DefaultMaxSize)

	files, err := g.Collect([]string{"late.txt", "clean.txt"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected both files, got %d", len(files))
	}
	if files[0].Content != head+"\uFFFDz\n" {
		t.Fatalf("bad byte not replaced: %q", files[0].Content[binarySample:])
	}
	warned := logs.FilterMessage("file contains invalid UTF-8, replacing bad bytes with U+FFFD")
	if warned.Len() != 1 || warned.All()[0].ContextMap()["path"] != "late.txt" {
		t.Fatalf("expected one replacement warning for late.txt, got %v", logs.All())
	}
}

func TestOmit(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")
	paths := []string{filepath.Join(dir, "a.go"), logPath, filepath.Join(dir, "sub", "..", "run.log")}

	got := Omit(paths, "", logPath)
	if len(got) != 1 || got[0] != paths[0] {
		t.Fatalf("Omit = %v", got)
	}
	if got := Omit(paths, ""); len(got) != len(paths) {
		t.Fatalf("empty skip must keep every path, got %v", got)
	}
}

func TestIsBinaryIgnoresRuneCutBySample(t *testing.T) {
	data := []byte(strings.Repeat("a", binarySample-1) + "中文")
	if isBinary(data) {
		t.Fatalf("a rune split by the sample boundary is not binary")
	}
	if !isBinary([]byte("ok\xffok")) {
		t.Fatalf("invalid UTF-8 must be binary")
	}
	if isBinary(nil) {
		t.Fatalf("empty file is not binary")
	}
}
