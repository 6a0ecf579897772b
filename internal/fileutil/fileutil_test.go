package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

type testData struct {
	Name  string `yaml:"name"`
	Value int    `yaml:"value"`
}

func TestReadYAML(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantErr   bool
		wantName  string
		wantValue int
	}{
		{
			name:      "valid YAML",
			content:   "name: test\nvalue: 42\n",
			wantName:  "test",
			wantValue: 42,
		},
		{
			name:    "invalid YAML",
			content: "name: [unclosed\n",
			wantErr: true,
		},
		{
			name:    "empty document",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			var data testData
			err := ReadYAML(path, &data)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if data.Name != tt.wantName || data.Value != tt.wantValue {
				t.Errorf("got %+v, want name=%q value=%d", data, tt.wantName, tt.wantValue)
			}
		})
	}
}

func TestReadYAML_Missing(t *testing.T) {
	var data testData
	err := ReadYAML(filepath.Join(t.TempDir(), "nope.yaml"), &data)
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestWriteYAMLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.yaml")

	if err := WriteYAMLAtomic(path, testData{Name: "first", Value: 1}, 0o600); err != nil {
		t.Fatalf("WriteYAMLAtomic: %v", err)
	}
	if err := WriteYAMLAtomic(path, testData{Name: "second", Value: 2}, 0o600); err != nil {
		t.Fatalf("WriteYAMLAtomic overwrite: %v", err)
	}

	var got testData
	if err := ReadYAML(path, &got); err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	if got.Name != "second" || got.Value != 2 {
		t.Errorf("got %+v", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}
