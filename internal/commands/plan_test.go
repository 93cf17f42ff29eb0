// internal/commands/plan_test.go
package contextgather

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPlanCommandUsesConfigFile(t *testing.T) {
	config := `{ "chunkSize": 1000, "headerMode": "separate", "tokenizer": "approx" }`
	h, err := execute(t, bigTree(), config, "", "plan", "proj")
	if err != nil {
		t.Fatalf("ExecuteC error: %v\n%s", err, h.err.String())
	}

	var m planManifest
	if err := yaml.Unmarshal(h.out.Bytes(), &m); err != nil {
		t.Fatalf("plan output is not YAML: %v\n%s", err, h.out.String())
	}
	if m.Budget != 1000 || m.HeaderMode != "separate" {
		t.Fatalf("config file values not applied: %+v", m)
	}
	if len(m.FileMap) != 3 || m.TotalChunks != len(m.Chunks)+1 {
		t.Fatalf("unexpected manifest shape: %+v", m)
	}
	seen := 0
	for _, c := range m.Chunks {
		if c.Tokens > m.Budget {
			t.Fatalf("chunk %d over budget: %d", c.Index, c.Tokens)
		}
		seen += len(c.Fragments)
	}
	if seen != 3 {
		t.Fatalf("expected 3 whole-file fragments, got %d", seen)
	}
	if len(h.clip.copies) != 0 {
		t.Fatalf("plan must not touch the clipboard")
	}
}

func TestPlanCommandFlagOverridesConfig(t *testing.T) {
	config := `{ "chunkSize": 1000, "headerMode": "separate", "tokenizer": "approx" }`
	h, err := execute(t, bigTree(), config, "", "plan", "--header-mode", "inline", "proj")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	if !strings.Contains(h.out.String(), "headerMode: inline") {
		t.Fatalf("flag should win over the config file:\n%s", h.out.String())
	}
}

func TestPlanCommandSplitsLargeFile(t *testing.T) {
	files := map[string]string{"proj/big.txt": strings.Repeat("x", 39) + "\n"}
	for i := 0; i < 6; i++ {
		files["proj/big.txt"] += files["proj/big.txt"]
	}
	h, err := execute(t, files, "{}", "", "plan", "--tokenizer", "approx", "--chunk-size", "300", "proj")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	var m planManifest
	if err := yaml.Unmarshal(h.out.Bytes(), &m); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if len(m.FileMap) != 1 || m.FileMap[0].Parts < 2 {
		t.Fatalf("expected the file to be split into parts: %+v", m.FileMap)
	}
	// chunk 1 may hold the inline header alone
	var first fragmentManifest
	for _, c := range m.Chunks {
		if len(c.Fragments) > 0 {
			first = c.Fragments[0]
			break
		}
	}
	if first.Part != 1 || first.Parts != m.FileMap[0].Parts || !strings.HasPrefix(first.Lines, "1-") {
		t.Fatalf("unexpected first fragment: %+v", first)
	}
}

func TestPlanCommandOutputFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "plan.yaml")
	h, err := execute(t, smallTree, "{}", "", "plan", "--tokenizer", "approx", "--output", target, "proj")
	if err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("plan file not written: %v", err)
	}
	if !strings.Contains(string(data), "path: proj/main.go") {
		t.Fatalf("unexpected plan file:\n%s", data)
	}
	if h.out.Len() != 0 || !strings.Contains(h.err.String(), "plan written to") {
		t.Fatalf("stdout should stay empty when writing to a file: %q / %q", h.out.String(), h.err.String())
	}
}
