package capture

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResolveTsharkPath(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := writeDummyTool(t, "tshark_explicit")
		got, err := ResolveTsharkPath(path)
		if err != nil {
			t.Fatalf("ResolveTsharkPath failed: %v", err)
		}
		if got != path {
			t.Fatalf("path: got %q want %q", got, path)
		}
	})

	t.Run("env path", func(t *testing.T) {
		path := writeDummyTool(t, "tshark_env")
		t.Setenv("TSHARK", path)
		got, err := ResolveTsharkPath("")
		if err != nil {
			t.Fatalf("ResolveTsharkPath failed: %v", err)
		}
		if got != path {
			t.Fatalf("path: got %q want %q", got, path)
		}
	})

	t.Run("env base name", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("LookPath needs an executable extension on windows")
		}
		name := "pcapexplain_test_tshark"
		path := writeDummyTool(t, name)
		if err := os.Chmod(path, 0o755); err != nil {
			t.Fatal(err)
		}
		t.Setenv("TSHARK", name)
		t.Setenv("PATH", filepath.Dir(path)+string(os.PathListSeparator)+os.Getenv("PATH"))
		got, err := ResolveTsharkPath("")
		if err != nil {
			t.Fatalf("ResolveTsharkPath failed: %v", err)
		}
		if got != path {
			t.Fatalf("path: got %q want %q", got, path)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		if _, err := ResolveTsharkPath(filepath.Join(t.TempDir(), "nope", "tshark")); err == nil {
			t.Fatal("expected error for missing explicit path")
		}
	})
}

func writeDummyTool(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	filename := name
	if runtime.GOOS == "windows" {
		filename += ".exe"
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write dummy tool: %v", err)
	}
	return path
}
