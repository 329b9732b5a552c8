package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	hashengine "github.com/mattkeenan/libhash/pkg"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	t.Setenv(hashengine.ConfigEnvVar, "")
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	hashengine.SetLogWriter(nil)
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func parseOutput(t *testing.T, out string) []hashengine.LogEntry {
	t.Helper()
	var entries []hashengine.LogEntry
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		entry, err := hashengine.ParseLogLine(line)
		if err != nil {
			t.Fatalf("unparseable output line: %v", err)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func TestHashCommandPrintsOneLinePerFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt":              "abc",
		"b.txt":              "",
		"sub/with space.txt": "abc",
	})

	out, stderr, err := runCLI(t, []string{"hash", dir, "--summary", "never"}, "")
	if err != nil {
		t.Fatalf("hash: %v (stderr: %s)", err, stderr)
	}

	entries := parseOutput(t, out)
	if len(entries) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(entries), out)
	}

	expected := []struct {
		path   string
		digest string
	}{
		{filepath.Join(dir, "a.txt"), "900150983CD24FB0D6963F7D28E17F72"},
		{filepath.Join(dir, "b.txt"), "D41D8CD98F00B204E9800998ECF8427E"},
		{filepath.Join(dir, "sub", "with space.txt"), "900150983CD24FB0D6963F7D28E17F72"},
	}
	for i, want := range expected {
		if entries[i].Path != want.path || entries[i].Digest != want.digest {
			t.Errorf("entry %d: got %s %s, want %s %s", i, entries[i].Path, entries[i].Digest, want.path, want.digest)
		}
		if entries[i].OperationID != entries[0].OperationID {
			t.Errorf("entry %d has operation %d, want %d", i, entries[i].OperationID, entries[0].OperationID)
		}
	}
}

func TestHashCommandAlgorithmOverride(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "abc"})

	tests := []struct {
		algorithm string
		digest    string
	}{
		{"sha1", "A9993E364706816ABA3E25717850C26C9CD0D89D"},
		{"sha256", "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"},
	}
	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			out, _, err := runCLI(t, []string{"-a", tt.algorithm, "hash", dir, "--summary", "never"}, "")
			if err != nil {
				t.Fatalf("hash: %v", err)
			}
			entries := parseOutput(t, out)
			if len(entries) != 1 || entries[0].Digest != tt.digest {
				t.Fatalf("got %q, want digest %s", out, tt.digest)
			}
		})
	}
}

func TestHashCommandMultipleDirectories(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeFiles(t, first, map[string]string{"one": "1", "two": "2"})
	writeFiles(t, second, map[string]string{"three": "3"})

	out, stderr, err := runCLI(t, []string{"hash", first, second, "--summary", "always"}, "")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	perOperation := make(map[uint64]int)
	for _, entry := range parseOutput(t, out) {
		perOperation[entry.OperationID]++
	}
	if len(perOperation) != 2 {
		t.Fatalf("expected lines from 2 operations, got %v", perOperation)
	}
	requireContains(t, stderr, "2 operations")
	requireContains(t, stderr, "completed")
	t.Logf("summary:\n%s", stderr)
}

func TestHashCommandErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	writeFiles(t, dir, map[string]string{"plain": "x"})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing directory", []string{"hash", filepath.Join(dir, "nope")}, "invalid argument"},
		{"not a directory", []string{"hash", file}, "not a directory"},
		{"unknown algorithm", []string{"-a", "crc32", "hash", dir}, "unsupported hash algorithm"},
		{"bad summary mode", []string{"hash", dir, "--summary", "sometimes"}, "invalid --summary"},
		{"no arguments", []string{"hash"}, "requires at least 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, "")
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			requireContains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "libhash.ini")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote default configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatalf("expected second init without --overwrite to fail")
	}

	out, _, err = runCLI(t, []string{"-a", "blake3", "config", "show"}, target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, target)
	requireContains(t, out, "default = blake3")
	requireContains(t, out, "hash_buffer = 2M")
	requireContains(t, out, "terminate_grace = 5s")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "hashdir "+version)
}

func TestLineWriterWritev(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	lw := newLineWriter(f)
	total := maxBatchLines*2 + 17
	var want strings.Builder
	for i := 0; i < total; i++ {
		line := fmt.Sprintf("%d /data/file-%05d.bin %032X", i%3+1, i, i)
		want.WriteString(line + "\n")
		if err := lw.Add(line); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := lw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != want.String() {
		t.Fatalf("writev output mismatch: got %d bytes, want %d", len(got), want.Len())
	}
	if lw.Lines() != total {
		t.Errorf("Lines() = %d, want %d", lw.Lines(), total)
	}
}

func TestLineWriterBuffer(t *testing.T) {
	var buf bytes.Buffer
	lw := newLineWriter(&buf)
	for _, line := range []string{"1 /a X", "1 /b Y"} {
		if err := lw.Add(line); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written before Flush, got %q", buf.String())
	}
	if err := lw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if buf.String() != "1 /a X\n1 /b Y\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
