package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfigExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("node:\n  name: arm-controller\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	if _, err := FindConfig("/nonexistent/zocp.yaml"); err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zocp.yaml")
	os.WriteFile(path, []byte("node:\n  name: arm-controller\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Node.Name != "arm-controller" {
		t.Errorf("Node.Name = %q, want arm-controller", cfg.Node.Name)
	}
	if cfg.Transport.BeaconPort != 5670 {
		t.Errorf("Transport.BeaconPort = %d, want default 5670", cfg.Transport.BeaconPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
}

func TestLoadRejectsBadBeaconPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zocp.yaml")
	os.WriteFile(path, []byte("transport:\n  beacon_port: 70000\n"), 0600)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for out-of-range beacon_port")
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zocp.yaml")
	os.WriteFile(path, []byte("log_level: shout\n"), 0600)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown log level")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly, got %v", err)
	}
}
