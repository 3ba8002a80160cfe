package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Backend = "llamafile"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend accepted")
	}

	cfg = Default()
	cfg.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty model accepted")
	}

	cfg = Default()
	cfg.Existing = "maybe"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown policy accepted")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Model = "llava:13b"
	cfg.Enhanced = true
	cfg.Verify = false

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip changed config:\ngot  %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"model": "moondream:1.8b"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Model != "moondream:1.8b" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Backend != "ollama" || !cfg.Embed {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"backend": "grpc"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestPrefs(t *testing.T) {
	cfg := Default()
	cfg.HighFidelity = true
	cfg.Enhanced = true
	cfg.Verify = false
	p := cfg.Prefs()
	if !p.HighFidelity || !p.Enhanced || p.Verify {
		t.Errorf("Prefs = %+v", p)
	}
}
