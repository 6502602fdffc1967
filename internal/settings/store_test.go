package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// exerciseStore runs the behaviour every backend must share
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := t.Context()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, "nightscoutUrl", "https://a.example.com"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "nightscoutUrl", "https://b.example.com"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, err := store.Get(ctx, "nightscoutUrl")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "https://b.example.com" {
		t.Errorf("Get() = %q, want the last written value", got)
	}

	if err := store.Set(ctx, "bgThresholds", `{"bgLowMgdl":70}`); err != nil {
		t.Fatalf("Set(json) error = %v", err)
	}
	if got, _ := store.Get(ctx, "bgThresholds"); got != `{"bgLowMgdl":70}` {
		t.Errorf("Get(json) = %q", got)
	}

	if err := store.Remove(ctx, "nightscoutUrl"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := store.Get(ctx, "nightscoutUrl"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Remove error = %v, want ErrNotFound", err)
	}
	if err := store.Remove(ctx, "nightscoutUrl"); err != nil {
		t.Errorf("Remove() of absent key error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "k", strings.Repeat("x", i))
			_, _ = store.Get(ctx, "k")
		}()
	}
	wg.Wait()

	if _, err := store.Get(ctx, "k"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	exerciseStore(t, NewFileStore(path))

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("settings file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFileStore_SharedBetweenInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	writer := NewFileStore(path)
	reader := NewFileStore(path)

	if err := writer.Set(t.Context(), "bgUnits", "mmol"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := reader.Get(t.Context(), "bgUnits")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "mmol" {
		t.Errorf("Get() = %q, want mmol", got)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("this is = = not toml"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(path).Get(t.Context(), "bgUnits")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on corrupt file error = %v, want parse error", err)
	}
}

func TestFileStore_HandEditedScalars(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	data := "nightscoutUrl = \"https://ns.example\"\nshowLoopData = true\nbgLowMgdl = 65\nopacity = 0.85\n\n[colors]\nlow = \"red\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)

	tests := []struct {
		key  string
		want string
	}{
		{key: "nightscoutUrl", want: "https://ns.example"},
		{key: "showLoopData", want: "true"},
		{key: "bgLowMgdl", want: "65"},
		{key: "opacity", want: "0.85"},
	}
	for _, tt := range tests {
		got, err := store.Get(t.Context(), tt.key)
		if err != nil {
			t.Errorf("Get(%s) error = %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%s) = %q, want %q", tt.key, got, tt.want)
		}
	}

	if _, err := store.Get(t.Context(), "colors"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(colors) error = %v, want ErrNotFound", err)
	}

	// A write keeps the hand-edited values readable
	if err := store.Set(t.Context(), "bgUnits", "mmol"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, err := store.Get(t.Context(), "showLoopData"); err != nil || got != "true" {
		t.Errorf("Get(showLoopData) after Set = %q, %v", got, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	store, err := OpenSQLite(t.Context(), filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	exerciseStore(t, store)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	store, err := OpenRedis(t.Context(), url)
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	t.Cleanup(func() {
		_ = store.Remove(context.Background(), "bgThresholds")
	})

	exerciseStore(t, store)
}
