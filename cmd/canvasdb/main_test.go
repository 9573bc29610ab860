package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpattn/canvasdb/internal/seed"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestExecute_PreviewFile(t *testing.T) {
	t.Setenv("CANVASDB_SEED_DEMO", "true")
	t.Setenv("CANVASDB_LOG_LEVEL", "error")

	demo := seed.DemoCanvas()
	raw, err := json.Marshal(canvasFile{Nodes: demo.Nodes, Edges: demo.Edges})
	if err != nil {
		t.Fatalf("encode canvas: %v", err)
	}
	path := filepath.Join(t.TempDir(), "canvas.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write canvas: %v", err)
	}

	out, err := runCLI(t, "--driver", "memory", "execute", "--file", path)
	if err != nil {
		t.Fatalf("execute returned error: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestExecute_StoredCanvasSavesView(t *testing.T) {
	t.Setenv("CANVASDB_SEED_DEMO", "true")
	t.Setenv("CANVASDB_LOG_LEVEL", "error")

	out, err := runCLI(t, "--driver", "memory", "execute", "--canvas", "1", "--view", "nightly")
	if err != nil {
		t.Fatalf("execute returned error: %v", err)
	}
	if !strings.Contains(out, `"name": "nightly"`) {
		t.Fatalf("expected saved view in output, got %s", out)
	}
}

func TestExecute_RequiresOneSource(t *testing.T) {
	if _, err := runCLI(t, "--driver", "memory", "execute"); err == nil {
		t.Fatalf("expected error without --file or --canvas")
	}
}
