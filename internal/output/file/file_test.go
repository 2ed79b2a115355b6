package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testDoc struct {
	Count int      `json:"count"`
	Items []string `json:"items"`
}

func TestWriteProducesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	out, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := out.Write(context.Background(), testDoc{Count: 2, Items: []string{"a", "b"}}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got testDoc
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Count != 2 || len(got.Items) != 2 {
		t.Fatalf("unexpected document: %+v", got)
	}
	if !strings.Contains(string(data), "\n  \"count\": 2") {
		t.Errorf("expected two-space indentation, got:\n%s", data)
	}
}

func TestCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "2026", "out.json")
	out, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), testDoc{})
	if err := out.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}

func TestOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 4096)), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), testDoc{Count: 1})
	if err := out.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "xxx") {
		t.Fatal("old content survived overwrite")
	}
}

func TestNothingVisibleBeforeClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	out, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), testDoc{Count: 1})

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file at %s before Close, stat err = %v", path, err)
	}
	out.Close()
}

func TestFailedWriteLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	boom := WithEncoder(func(io.Writer, any) error { return errors.New("boom") })

	out, err := New(path, boom)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := out.Write(context.Background(), testDoc{}); err == nil {
		t.Fatal("expected encode error")
	}
	if err := out.Close(); err == nil {
		t.Fatal("expected Close to report the earlier failure")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}

func TestCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	out, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := out.Write(ctx, testDoc{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	out.Close()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("cancelled write should not produce a file")
	}
}

func TestCustomEncoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.md")
	md := WithEncoder(func(w io.Writer, doc any) error {
		_, err := fmt.Fprintf(w, "# %v\n", doc)
		return err
	})
	out, err := New(path, md)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), "report")
	if err := out.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "# report\n" {
		t.Fatalf("got %q", data)
	}
}

func TestFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	out, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), testDoc{})
	out.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestFileAbortLeavesTargetUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := New(path)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	out.Write(context.Background(), testDoc{})
	if err := out.Abort(); err != nil {
		t.Fatalf("Abort error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Errorf("target changed after Abort: %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the target in dir, got %d entries", len(entries))
	}
}
