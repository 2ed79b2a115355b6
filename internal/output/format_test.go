package output

import (
	"bytes"
	"strings"
	"testing"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONEncoderIndents(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONEncoder(&buf, doc{Name: "a<b>", Count: 2}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "{\n  \"name\": \"a<b>\",\n  \"count\": 2\n}\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestCompactJSONEncoderSingleLine(t *testing.T) {
	var buf bytes.Buffer
	if err := CompactJSONEncoder(&buf, doc{Name: "x", Count: 1}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
}
