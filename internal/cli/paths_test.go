package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, input, suffix, want string
	}{
		{"", "shop.yaml", ".layout.json", "shop.layout.json"},
		{"", "dir/shop.toml", ".svg", "dir/shop.svg"},
		{"out.json", "shop.yaml", ".layout.json", "out.json"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.input, tt.suffix); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.output, tt.input, tt.suffix, got, tt.want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name, output, input, want string
	}{
		{"from input", "", "schemas/shop.yaml", "schemas/shop"},
		{"strip format ext", "out/diagram.svg", "shop.yaml", "out/diagram"},
		{"keep other ext", "out/diagram.v2", "shop.yaml", "out/diagram.v2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestOutputFiles(t *testing.T) {
	single := outputFiles("erd.svg", "shop.yaml", []string{"svg"})
	if single["svg"] != "erd.svg" {
		t.Errorf("single format = %v", single)
	}

	multi := outputFiles("", "shop.yaml", []string{"svg", "json"})
	if multi["svg"] != "shop.svg" || multi["json"] != "shop.json" {
		t.Errorf("multiple formats = %v", multi)
	}
}
