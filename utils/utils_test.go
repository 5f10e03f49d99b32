package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantExt string
	}{
		{name: "jpeg", in: "puzzle.JPG", wantExt: ".jpg"},
		{name: "no ext", in: "puzzle", wantExt: ""},
		{name: "path traversal", in: "../../etc/passwd.png", wantExt: ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UploadName(tt.in)
			if err != nil {
				t.Fatalf("UploadName() error = %v", err)
			}
			if filepath.Ext(got) != tt.wantExt {
				t.Errorf("UploadName(%q) = %q, want ext %q", tt.in, got, tt.wantExt)
			}
			if strings.ContainsAny(got, `/\`) {
				t.Errorf("UploadName(%q) = %q contains a separator", tt.in, got)
			}
		})
	}

	a, _ := UploadName("a.png")
	b, _ := UploadName("a.png")
	if a == b {
		t.Errorf("expected unique names, got %q twice", a)
	}
}

func TestFileMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FileMD5(path)
	if err != nil {
		t.Fatalf("FileMD5() error = %v", err)
	}
	if got != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("FileMD5() = %s", got)
	}
	if _, err := FileMD5(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
