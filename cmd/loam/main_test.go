package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/loam/pkg/snapshot"
)

func runCommand(t *testing.T, command string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := run(command, append([]string{"-workers", "2", "-seed", "3"}, args...), &buf)
	return buf.String(), err
}

func TestVersionAndHelp(t *testing.T) {
	var buf bytes.Buffer
	if err := run("version", nil, &buf); err != nil {
		t.Fatalf("version error: %v", err)
	}
	if got := buf.String(); got != "loam dev\n" {
		t.Errorf("version output = %q, want %q", got, "loam dev\n")
	}

	buf.Reset()
	if err := run("help", nil, &buf); err != nil {
		t.Fatalf("help error: %v", err)
	}
	for _, cmd := range []string{"run", "cube", "dump", "stats", "version"} {
		if !strings.Contains(buf.String(), cmd) {
			t.Errorf("usage does not mention %s", cmd)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		command string
		args    []string
	}{
		{"erode", nil},
		{"run", nil},
		{"run", []string{"a.loam", "b.loam"}},
		{"cube", nil},
		{"stats", nil},
		{"dump", []string{"-step"}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		err := run(tt.command, tt.args, &buf)
		if !errors.Is(err, errUsage) {
			t.Errorf("run(%s, %v) = %v, want a usage error", tt.command, tt.args, err)
		}
	}
}

func TestRunScript(t *testing.T) {
	out, err := runCommand(t, "run", "../../examples/mound.loam")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	for _, want := range []string{"Mesh:      plan-v", "Triangles: ", "Bounds:", "Field:     33³ samples"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Triangles: 0\n") {
		t.Errorf("expected geometry:\n%s", out)
	}
}

func TestRunWritesSnapshots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snap")
	out, err := runCommand(t, "run", "-out", dir, "-granularity", "8", "../../examples/arch.loam")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.Contains(out, "fresh mesh") {
		t.Errorf("expected the unfinished-plan warning:\n%s", out)
	}
	if !strings.Contains(out, "Snapshots: "+dir) {
		t.Errorf("output does not name the snapshot dir:\n%s", out)
	}
	for _, name := range []string{snapshot.ValuesFile, snapshot.LatticeFile, snapshot.MeshFile, snapshot.StatsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRunReportsScriptErrors(t *testing.T) {
	script := filepath.Join(t.TempDir(), "broken.loam")
	if err := os.WriteFile(script, []byte("(brush (vec3 1 1 1) 1 2)"), 0644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	_, err := runCommand(t, "run", script)
	if err == nil {
		t.Fatal("expected an error for brush before generate")
	}
	if !strings.Contains(err.Error(), "before generate") {
		t.Errorf("error = %v, want it to mention generate", err)
	}

	if _, err := runCommand(t, "run", filepath.Join(t.TempDir(), "missing.loam")); err == nil {
		t.Error("expected an error for a missing script")
	}
}

func TestCube(t *testing.T) {
	tests := []struct {
		arg       string
		pattern   string
		triangles string
	}{
		{"1", "0b00000001 (1)", "Case triangles: 1\nMesh triangles: 1\n"},
		{"0b00000011", "0b00000011 (3)", "Case triangles: 2\nMesh triangles: 2\n"},
		{"0xff", "0b11111111 (255)", "Case triangles: 0\nMesh triangles: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			out, err := runCommand(t, "cube", tt.arg)
			if err != nil {
				t.Fatalf("cube error: %v", err)
			}
			if !strings.Contains(out, tt.pattern) {
				t.Errorf("output missing pattern %q:\n%s", tt.pattern, out)
			}
			if !strings.Contains(out, tt.triangles) {
				t.Errorf("output missing %q:\n%s", tt.triangles, out)
			}
		})
	}

	if _, err := runCommand(t, "cube", "256"); err == nil {
		t.Error("expected an error for pattern 256")
	}
}

func TestDump(t *testing.T) {
	out, err := runCommand(t, "dump", "-layers", "0", "-n", "0")
	if err != nil {
		t.Fatalf("dump error: %v", err)
	}
	for _, want := range []string{
		"Field: step 0.5, scale 2, 5³ samples",
		"z=0\n", "z=4\n",
		"Lattice: granularity 2, 27 points, capacity 120",
		"Mesh: 0 entries, 0 triangles",
		"solid 0.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsCSV(t *testing.T) {
	out, err := runCommand(t, "stats", "-granularity", "8", "../../examples/mound.loam", "../../examples/arch.loam")
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("stats printed %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "label,samples,min,max") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "mound.loam,") || !strings.HasPrefix(lines[2], "arch.loam,") {
		t.Errorf("rows = %q, %q", lines[1], lines[2])
	}
}
