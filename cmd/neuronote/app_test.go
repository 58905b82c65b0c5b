package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testConfigFile(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := "app:\n  log_level: ERROR\n" +
		"data:\n  path: " + filepath.Join(dir, "notes.json") + "\n" +
		"sqlite:\n  path: " + filepath.Join(dir, "index.db") + "\n" +
		"export:\n  dir: " + dir + "\n"
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return p, dir
}

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()

	argv := append([]string{"neuronote", "--config", configPath}, args...)
	err := newApp().Run(context.Background(), argv)
	return buf.String(), err
}

func mustRun(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, err := run(t, configPath, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestNoteLifecycle(t *testing.T) {
	cfg, _ := testConfigFile(t)

	if out := mustRun(t, cfg, "add", "Groceries", "milk and eggs #home"); !strings.Contains(out, "saved note 0") {
		t.Errorf("add = %q", out)
	}
	mustRun(t, cfg, "add", "Work", "finish the report")

	if out := mustRun(t, cfg, "list"); !strings.Contains(out, "0\tGroceries") || !strings.Contains(out, "1\tWork") {
		t.Errorf("list = %q", out)
	}
	if out := mustRun(t, cfg, "show", "1"); out != "Work\nfinish the report\n" {
		t.Errorf("show = %q", out)
	}

	mustRun(t, cfg, "edit", "1", "Work", "send the report")
	if out := mustRun(t, cfg, "show", "1"); !strings.Contains(out, "send the report") {
		t.Errorf("show after edit = %q", out)
	}

	mustRun(t, cfg, "trash", "0")
	if out := mustRun(t, cfg, "trash", "list"); out != "0\tGroceries\n" {
		t.Errorf("trash list = %q", out)
	}
	if out := mustRun(t, cfg, "restore", "0"); !strings.Contains(out, "restored as note 1") {
		t.Errorf("restore = %q", out)
	}

	mustRun(t, cfg, "trash", "1")
	mustRun(t, cfg, "purge", "0")
	if out := mustRun(t, cfg, "trash", "list"); out != "" {
		t.Errorf("trash after purge = %q", out)
	}
}

func TestErrors(t *testing.T) {
	cfg, _ := testConfigFile(t)
	cases := [][]string{
		{"show", "0"},
		{"show", "x"},
		{"trash", "3"},
		{"restore", "0"},
		{"add", "only-title"},
		{"export", "doc"},
	}
	for _, args := range cases {
		if _, err := run(t, cfg, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestSummarizeAndGroups(t *testing.T) {
	cfg, _ := testConfigFile(t)
	mustRun(t, cfg, "add", "Plan", "Ship the release on Friday. Then rest. #work")

	if out := mustRun(t, cfg, "summarize", "0"); strings.TrimSpace(out) == "" {
		t.Error("empty summary")
	}
	if out := mustRun(t, cfg, "groups"); !strings.Contains(out, "work (1)\n\tPlan") {
		t.Errorf("groups = %q", out)
	}
}

func TestImportExportSearch(t *testing.T) {
	cfg, dir := testConfigFile(t)
	md := filepath.Join(dir, "meeting.md")
	_ = os.WriteFile(md, []byte("# Standup\nblockers discussed\n"), 0o644)

	if out := mustRun(t, cfg, "import", md); !strings.Contains(out, "as note 0") {
		t.Errorf("import = %q", out)
	}
	if out := mustRun(t, cfg, "search", "blockers"); !strings.Contains(out, "Standup") {
		t.Errorf("search = %q", out)
	}

	mustRun(t, cfg, "export", "txt")
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("txt export: %v", err)
	}
	out := t.TempDir()
	mustRun(t, cfg, "export", "pdf", out)
	if _, err := os.Stat(filepath.Join(out, "notes.pdf")); err != nil {
		t.Errorf("pdf export: %v", err)
	}
}

func TestImportGlob(t *testing.T) {
	cfg, dir := testConfigFile(t)
	sub := filepath.Join(dir, "vault", "daily")
	_ = os.MkdirAll(sub, 0o755)
	_ = os.WriteFile(filepath.Join(dir, "vault", "a.md"), []byte("alpha"), 0o644)
	_ = os.WriteFile(filepath.Join(sub, "b.md"), []byte("beta"), 0o644)
	_ = os.WriteFile(filepath.Join(sub, "skip.txt"), []byte("x"), 0o644)

	out := mustRun(t, cfg, "import", filepath.Join(dir, "vault", "**", "*.md"))
	if n := strings.Count(out, "imported"); n != 2 {
		t.Errorf("imported %d files, want 2: %q", n, out)
	}
	if _, err := run(t, cfg, "import", filepath.Join(dir, "none", "*.md")); err == nil {
		t.Error("expected error for pattern without matches")
	}
}
