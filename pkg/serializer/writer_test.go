package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type nested struct {
	Name   string            `json:"name"`
	Ports  []int             `json:"ports"`
	Labels map[string]string `json:"labels"`
	Inner  *payload          `json:"inner,omitempty"`
	Secret string            `json:"-"`
}

type issues []string

func (issues) Columns() []string { return []string{"id", "message"} }

func (i issues) Rows() [][]string {
	out := make([][]string, 0, len(i))
	for n, m := range i {
		out = append(out, []string{string(rune('a' + n)), m})
	}
	return out
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(FormatJSON, &buf).Serialize(context.Background(), []payload{{Name: "a", Count: 1}}); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var got []payload
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Errorf("expected indented JSON, got %q", buf.String())
	}
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(FormatYAML, &buf).Serialize(context.Background(), map[string]any{"a": map[string]int{"b": 1}}); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.String() != "a:\n  b: 1\n" {
		t.Errorf("got %q", buf.String())
	}
	var back map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestWriterTableFlattened(t *testing.T) {
	var buf bytes.Buffer
	v := nested{Name: "cfg", Ports: []int{80}, Labels: map[string]string{"zone": "a"}, Inner: &payload{Name: "in", Count: 2}, Secret: "s"}
	if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), v); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"FIELD", "VALUE", "name", "ports.[0]", "labels.zone", "inner.count", "inner.name"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Secret") || strings.Contains(out, " s\n") {
		t.Errorf("table leaked a skipped field:\n%s", out)
	}
}

func TestWriterTableTabular(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), issues{"first", "second"}); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "MESSAGE") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "--") {
		t.Errorf("rule = %q", lines[1])
	}
}

func TestWriterTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), struct{}{}); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "<empty>" {
		t.Errorf("got %q", buf.String())
	}
}

func TestNewWriterDefaults(t *testing.T) {
	w := NewWriter(Format("xml"), nil)
	if w.format != FormatJSON {
		t.Errorf("format = %s, want json", w.format)
	}
	if w.output != os.Stdout {
		t.Error("expected stdout")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewFileWriterOrStdout(t *testing.T) {
	if _, ok := NewFileWriterOrStdout(FormatJSON, "  ").(*Writer); !ok {
		t.Error("empty path should yield a stdout writer")
	}
	if _, ok := NewFileWriterOrStdout(FormatJSON, "cm://hw/catalogs").(*ConfigMapWriter); !ok {
		t.Error("cm:// path should yield a ConfigMap writer")
	}
	if w, ok := NewFileWriterOrStdout(FormatJSON, "cm://broken").(*Writer); !ok || w.output != os.Stdout {
		t.Error("invalid cm:// path should fall back to stdout")
	}
	if w, ok := NewFileWriterOrStdout(FormatJSON, "/nonexistent/dir/out.json").(*Writer); !ok || w.output != os.Stdout {
		t.Error("uncreatable file should fall back to stdout")
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	w := NewFileWriterOrStdout(FormatYAML, path)
	if err := w.Serialize(context.Background(), payload{Name: "f"}); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := CloseIfPossible(w); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := CloseIfPossible(w); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "name: f") {
		t.Errorf("file = %q", data)
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.json", FormatJSON},
		{"a.YAML", FormatYAML},
		{"a.yml", FormatYAML},
		{"a.txt", FormatTable},
		{"a", FormatJSON},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
	if ParseFormat(" Yaml ") != FormatYAML || ParseFormat("xml") != FormatJSON {
		t.Error("ParseFormat mismatch")
	}
	if FormatTable.Extension() != "txt" || FormatYAML.Extension() != "yaml" || FormatJSON.Extension() != "json" {
		t.Error("Extension mismatch")
	}
	if len(SupportedFormats()) != 3 {
		t.Error("expected three formats")
	}
}
