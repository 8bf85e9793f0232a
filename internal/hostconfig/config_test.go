package hostconfig

import (
	"path/filepath"
	"testing"
)

func TestLoadFromFileWritesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Window.Scale != 3 {
		t.Fatalf("default scale = %d, want 3", c.Window.Scale)
	}

	reloaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("reloading written defaults: %v", err)
	}
	if reloaded.Input.Player1Keys.A != "KeyJ" {
		t.Fatalf("reloaded key mapping A = %q, want KeyJ", reloaded.Input.Player1Keys.A)
	}
}

func TestSaveToFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	c := New()
	c.Window.Scale = 5
	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Window.Scale != 5 {
		t.Fatalf("loaded scale = %d, want 5", loaded.Window.Scale)
	}
}
