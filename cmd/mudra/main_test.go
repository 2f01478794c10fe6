package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/generate"
)

func TestBrowserURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000"},
	}
	for _, tt := range tests {
		if got := browserURL(tt.addr); got != tt.want {
			t.Errorf("browserURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestFindWebDir(t *testing.T) {
	dataDir := t.TempDir()
	if got := findWebDir(filepath.Join(dataDir, "missing"), dataDir); got != "" {
		t.Errorf("findWebDir with no candidates = %q", got)
	}

	static := filepath.Join(dataDir, "static")
	if err := os.Mkdir(static, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := findWebDir(static, dataDir); got != static {
		t.Errorf("findWebDir = %q, want %q", got, static)
	}
}

func TestNewGenerator(t *testing.T) {
	cfg := config.Default()
	cfg.Generation.Mock = true
	if _, ok := newGenerator(cfg).(*generate.MockGenerator); !ok {
		t.Error("mock mode should use the mock generator")
	}

	cfg.Generation.Mock = false
	cfg.Generation.APIKeyEnv = "MUDRA_TEST_UNSET_KEY"
	t.Setenv("MUDRA_TEST_UNSET_KEY", "")
	if _, ok := newGenerator(cfg).(*generate.MockGenerator); !ok {
		t.Error("a missing key should fall back to the mock generator")
	}

	t.Setenv("MUDRA_TEST_UNSET_KEY", "sk-test")
	if _, ok := newGenerator(cfg).(*generate.Client); !ok {
		t.Error("a configured key should use the client")
	}
}
