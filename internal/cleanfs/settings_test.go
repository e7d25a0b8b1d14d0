package cleanfs_test

import (
	"testing"

	"cleanfs/internal/cleanfs"
	"cleanfs/internal/testutil"
)

func TestSettingsService(t *testing.T) {
	newService := func(t *testing.T) *cleanfs.SettingsService {
		t.Helper()
		return cleanfs.NewSettingsService(testutil.NewTestStore(t), cleanfs.NewNopLogger(), testutil.FixedClock())
	}

	t.Run("defaults for a fresh owner", func(t *testing.T) {
		svc := newService(t)

		s, err := svc.Get(owner)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if s.Theme != "system" {
			t.Errorf("Theme = %q, want system", s.Theme)
		}
		if !s.Notifications {
			t.Error("Notifications = false, want true")
		}
		if s.CompressUploads {
			t.Error("CompressUploads = true, want false")
		}
	})

	t.Run("update round trip", func(t *testing.T) {
		svc := newService(t)

		s, _ := svc.Get(owner)
		s.Theme = "dark"
		s.CompressUploads = true
		if err := svc.Update(owner, s); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := svc.Get(owner)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Theme != "dark" {
			t.Errorf("Theme = %q, want dark", got.Theme)
		}
		if !got.CompressUploads {
			t.Error("CompressUploads = false, want true")
		}
	})

	t.Run("second update overwrites", func(t *testing.T) {
		svc := newService(t)

		s, _ := svc.Get(owner)
		s.Theme = "dark"
		if err := svc.Update(owner, s); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		s.Theme = "light"
		s.Notifications = false
		if err := svc.Update(owner, s); err != nil {
			t.Fatalf("second Update() error = %v", err)
		}

		got, _ := svc.Get(owner)
		if got.Theme != "light" || got.Notifications {
			t.Errorf("settings = %+v, want light/no notifications", got)
		}
	})

	t.Run("owners are isolated", func(t *testing.T) {
		svc := newService(t)

		s, _ := svc.Get(owner)
		s.Theme = "dark"
		if err := svc.Update(owner, s); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		other, err := svc.Get("u2")
		if err != nil {
			t.Fatalf("Get(u2) error = %v", err)
		}
		if other.Theme != "system" {
			t.Errorf("u2 theme = %q, want default", other.Theme)
		}
	})
}
