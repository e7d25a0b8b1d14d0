package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"cleanfs/internal/config"
)

func TestNewConfig(t *testing.T) {
	cfg := config.NewConfig("u1", "/home/user/.cleanfs")

	if cfg.OwnerID != "u1" {
		t.Errorf("OwnerID = %q", cfg.OwnerID)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", cfg.Database.Type)
	}
	if cfg.Database.DataDir != filepath.Join("/home/user/.cleanfs", "data") {
		t.Errorf("Database.DataDir = %q", cfg.Database.DataDir)
	}
	if cfg.Blob.Type != "filesystem" {
		t.Errorf("Blob.Type = %q, want filesystem", cfg.Blob.Type)
	}
	if cfg.Blob.FSRoot != filepath.Join("/home/user/.cleanfs", "blobs") {
		t.Errorf("Blob.FSRoot = %q", cfg.Blob.FSRoot)
	}
	if cfg.LogDir != filepath.Join("/home/user/.cleanfs", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
}

func TestManager_ReadWrite(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := config.NewConfig("u1", "/base")
		in.Blob = config.BlobConfig{
			Type:     "s3",
			S3Bucket: "my-bucket",
			S3Prefix: "cleanfs/",
			S3Region: "eu-west-1",
		}

		m := &config.Manager{}
		var buf bytes.Buffer
		if err := m.Write(&buf, in); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		out, err := m.Read(&buf)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if out.OwnerID != "u1" {
			t.Errorf("OwnerID = %q", out.OwnerID)
		}
		if out.Blob.Type != "s3" || out.Blob.S3Bucket != "my-bucket" || out.Blob.S3Region != "eu-west-1" {
			t.Errorf("Blob = %+v", out.Blob)
		}
	})

	t.Run("read rejects malformed toml", func(t *testing.T) {
		m := &config.Manager{}
		if _, err := m.Read(bytes.NewBufferString("owner_id = [unclosed")); err == nil {
			t.Error("Read() of malformed input succeeded")
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("creates a new config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		cfg := config.NewConfig("u1", "/base")

		if err := config.Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := config.ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.OwnerID != "u1" {
			t.Errorf("OwnerID = %q", got.OwnerID)
		}
	})

	t.Run("refuses to overwrite an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("owner_id = \"keep\"\n"), 0644); err != nil {
			t.Fatalf("seeding file: %v", err)
		}

		if err := config.Init(path, config.NewConfig("u1", "/base")); err == nil {
			t.Error("Init() over existing file succeeded")
		}
		got, err := config.ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.OwnerID != "keep" {
			t.Errorf("existing config was overwritten: %q", got.OwnerID)
		}
	})
}

func TestReadFromFile_Missing(t *testing.T) {
	if _, err := config.ReadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("ReadFromFile() of missing file succeeded")
	}
}
