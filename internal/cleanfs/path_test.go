package cleanfs_test

import (
	"errors"
	"testing"

	"cleanfs/internal/cleanfs"
)

func TestNormalizePath(t *testing.T) {
	t.Run("canonicalizes valid paths", func(t *testing.T) {
		cases := []struct {
			in   string
			want string
		}{
			{"", "/"},
			{"/", "/"},
			{"//", "/"},
			{"/docs", "/docs/"},
			{"/docs/", "/docs/"},
			{"docs", "/docs/"},
			{"/docs//2024///reports", "/docs/2024/reports/"},
			{"/a/b/c/", "/a/b/c/"},
		}
		for _, c := range cases {
			got, err := cleanfs.NormalizePath(c.in)
			if err != nil {
				t.Errorf("NormalizePath(%q) error = %v", c.in, err)
				continue
			}
			if got != c.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", c.in, got, c.want)
			}
		}
	})

	t.Run("rejects invalid segments", func(t *testing.T) {
		for _, in := range []string{"/./", "/docs/../etc", "/docs/\x00bad", "/docs/\x1f"} {
			_, err := cleanfs.NormalizePath(in)
			if !errors.Is(err, cleanfs.ErrInvalidPath) {
				t.Errorf("NormalizePath(%q) error = %v, want ErrInvalidPath", in, err)
			}
		}
	})
}

func TestValidateName(t *testing.T) {
	t.Run("accepts ordinary names", func(t *testing.T) {
		for _, name := range []string{"doc.txt", "Reports 2024", "a", ".hidden", "naïve"} {
			if err := cleanfs.ValidateName(name); err != nil {
				t.Errorf("ValidateName(%q) error = %v", name, err)
			}
		}
	})

	t.Run("rejects bad names", func(t *testing.T) {
		for _, name := range []string{"", ".", "..", "a/b", "tab\there"} {
			if err := cleanfs.ValidateName(name); !errors.Is(err, cleanfs.ErrInvalidPath) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidPath", name, err)
			}
		}
	})
}

func TestStorageKeys(t *testing.T) {
	if got := cleanfs.FileKey("u1", "/docs/", "a.txt"); got != "u1/docs/a.txt" {
		t.Errorf("FileKey = %q", got)
	}
	if got := cleanfs.DirKey("u1", "/docs/", "2024"); got != "u1/docs/2024/" {
		t.Errorf("DirKey = %q", got)
	}
	if got := cleanfs.OwnerPrefix("u1"); got != "u1/" {
		t.Errorf("OwnerPrefix = %q", got)
	}
}

func TestIsImmediateChild(t *testing.T) {
	cases := []struct {
		name      string
		candidate string
		parent    string
		want      bool
	}{
		{"file in root", "u1/a.txt", "u1/", true},
		{"dir in root", "u1/docs/", "u1/", true},
		{"file one level down", "u1/docs/a.txt", "u1/docs/", true},
		{"dir one level down", "u1/docs/2024/", "u1/docs/", true},
		{"file two levels down", "u1/docs/2024/a.txt", "u1/", false},
		{"dir two levels down", "u1/docs/2024/", "u1/", false},
		{"the directory itself", "u1/docs/", "u1/docs/", false},
		{"different branch", "u1/pics/a.png", "u1/docs/", false},
		{"prefix but not boundary", "u1/docsarchive/a.txt", "u1/docs/", false},
		{"other owner", "u2/a.txt", "u1/", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := cleanfs.IsImmediateChild(c.candidate, c.parent)
			if got != c.want {
				t.Errorf("IsImmediateChild(%q, %q) = %v, want %v", c.candidate, c.parent, got, c.want)
			}
		})
	}
}

func TestRelativeKey(t *testing.T) {
	if got := cleanfs.RelativeKey("u1/docs/2024/a.txt", "u1/docs/"); got != "2024/a.txt" {
		t.Errorf("RelativeKey = %q", got)
	}
	if got := cleanfs.RelativeKey("u1/docs/", "u1/"); got != "docs/" {
		t.Errorf("RelativeKey = %q", got)
	}
}

func TestMimeTypeByName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"report.pdf", "application/pdf"},
		{"photo.JPG", "image/jpeg"},
		{"notes.txt", "text/plain"},
		{"archive.gz", "application/gzip"},
		{"unknown.xyzzy", "application/octet-stream"},
	}
	for _, c := range cases {
		if got := cleanfs.MimeTypeByName(c.name); got != c.want {
			t.Errorf("MimeTypeByName(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestIsCompressedType(t *testing.T) {
	if !cleanfs.IsCompressedType("image/jpeg") {
		t.Error("IsCompressedType(image/jpeg) = false, want true")
	}
	if cleanfs.IsCompressedType("text/plain") {
		t.Error("IsCompressedType(text/plain) = true, want false")
	}
}
