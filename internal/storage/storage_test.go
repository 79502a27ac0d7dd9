package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"yd-go/internal/yd"
)

// exerciseStorage runs the behaviour every backend shares.
func exerciseStorage(t *testing.T, s yd.Storage) {
	t.Helper()

	if _, ok, err := s.GetItem("missing"); err != nil || ok {
		t.Fatalf("GetItem(missing) = ok %v, err %v; want not found", ok, err)
	}

	if err := s.SetItem("saved_drawings", `[{"id":"a"}]`); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if err := s.SetItem("other", "x"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if err := s.SetItem("saved_drawings", `[]`); err != nil {
		t.Fatalf("SetItem() overwrite error = %v", err)
	}

	got, ok, err := s.GetItem("saved_drawings")
	if err != nil || !ok {
		t.Fatalf("GetItem() = ok %v, err %v", ok, err)
	}
	if got != "[]" {
		t.Errorf("GetItem() = %q, want %q", got, "[]")
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if want := []string{"other", "saved_drawings"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}

	if err := s.RemoveItem("other"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if err := s.RemoveItem("other"); err != nil {
		t.Fatalf("RemoveItem() of missing key error = %v", err)
	}
	if _, ok, _ := s.GetItem("other"); ok {
		t.Error("GetItem() found removed key")
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestFileSystemStorage(t *testing.T) {
	exerciseStorage(t, mustFileSystemStorage(t, t.TempDir()))
}

func TestFileSystemStorage_Persists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")

	s1 := mustFileSystemStorage(t, root)
	if err := s1.SetItem("a/b key", "value"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}

	s2 := mustFileSystemStorage(t, root)
	got, ok, err := s2.GetItem("a/b key")
	if err != nil || !ok || got != "value" {
		t.Fatalf("GetItem() = %q, %v, %v; want value", got, ok, err)
	}

	keys, _ := s2.Keys()
	if !reflect.DeepEqual(keys, []string{"a/b key"}) {
		t.Errorf("Keys() = %v, want [a/b key]", keys)
	}
}

func TestFileSystemStorage_NoTempFilesLeft(t *testing.T) {
	root := t.TempDir()
	s := mustFileSystemStorage(t, root)

	for i := 0; i < 3; i++ {
		if err := s.SetItem("k", strings.Repeat("x", i)); err != nil {
			t.Fatalf("SetItem() error = %v", err)
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d files, want 1", len(entries))
	}
}

func TestSQLiteStorage(t *testing.T) {
	s, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	exerciseStorage(t, s)
}

func TestSQLiteStorage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "yd.db")

	s, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	if err := s.SetItem("k", "v"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.GetItem("k")
	if err != nil || !ok || got != "v" {
		t.Errorf("GetItem() = %q, %v, %v; want v", got, ok, err)
	}
}

func TestSQLiteStorage_CheckMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yd.db")

	s, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	if err := s.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() on a migrated database error = %v", err)
	}

	// Simulate a database written by a newer binary.
	if _, err := s.db.Exec("UPDATE schema_migrations SET version = 99"); err != nil {
		t.Fatalf("bumping schema version: %v", err)
	}
	if err := s.CheckMigrations(); err == nil {
		t.Error("CheckMigrations() with a newer schema expected error")
	}
	s.Close()

	if _, err := NewSQLiteStorage(path); err == nil {
		t.Error("NewSQLiteStorage() on a newer schema expected error")
	}
}

func TestQuotaStorage(t *testing.T) {
	t.Run("behaves like the wrapped store", func(t *testing.T) {
		exerciseStorage(t, NewQuotaStorage(NewMemoryStorage(), 1024))
	})

	t.Run("rejects writes past the limit", func(t *testing.T) {
		inner := NewMemoryStorage()
		q := NewQuotaStorage(inner, 20)

		if err := q.SetItem("k", "0123456789"); err != nil {
			t.Fatalf("SetItem() error = %v", err)
		}
		err := q.SetItem("other", "0123456789")
		if !errors.Is(err, yd.ErrQuotaExceeded) {
			t.Fatalf("SetItem() error = %v, want ErrQuotaExceeded", err)
		}
		if _, ok, _ := inner.GetItem("other"); ok {
			t.Error("rejected write reached the wrapped store")
		}
	})

	t.Run("replacing a key does not count the old value", func(t *testing.T) {
		q := NewQuotaStorage(NewMemoryStorage(), 12)

		if err := q.SetItem("k", "0123456789"); err != nil {
			t.Fatalf("SetItem() error = %v", err)
		}
		if err := q.SetItem("k", "abcdefghij"); err != nil {
			t.Fatalf("SetItem() replace error = %v", err)
		}

		used, err := q.Usage()
		if err != nil {
			t.Fatalf("Usage() error = %v", err)
		}
		if used != 11 {
			t.Errorf("Usage() = %d, want 11", used)
		}
	})
}

func TestObjectKey(t *testing.T) {
	if got := objectKey("yd/", "saved_drawings"); got != "yd/saved_drawings.json" {
		t.Errorf("objectKey() = %q", got)
	}

	tests := []struct {
		object string
		want   string
		wantOK bool
	}{
		{"yd/saved_drawings.json", "saved_drawings", true},
		{"yd/nested/item.json", "", false},
		{"other/saved_drawings.json", "", false},
		{"yd/readme.txt", "", false},
		{"yd/.json", "", false},
	}
	for _, tt := range tests {
		got, ok := itemKey("yd/", tt.object)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("itemKey(%q) = %q, %v; want %q, %v", tt.object, got, ok, tt.want, tt.wantOK)
		}
	}
}

func mustFileSystemStorage(t *testing.T, root string) *FileSystemStorage {
	t.Helper()
	s, err := NewFileSystemStorage(root)
	if err != nil {
		t.Fatalf("NewFileSystemStorage() error = %v", err)
	}
	return s
}

func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("YD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("YD_TEST_REDIS_ADDR not set")
	}

	s, err := NewRedisStorage(context.Background(), addr, "yd-test-"+t.Name()+":")
	if err != nil {
		t.Fatalf("NewRedisStorage() error = %v", err)
	}
	t.Cleanup(func() {
		keys, _ := s.Keys()
		for _, k := range keys {
			s.RemoveItem(k)
		}
		s.Close()
	})

	exerciseStorage(t, s)
}
