package cfg

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/lysyi3m/appcast-comb/app/errors"
)

func writeFixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("<rss/>"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadValidArguments(t *testing.T) {
	tempDir := t.TempDir()
	source := writeFixture(t, tempDir, "source.xml")
	target := writeFixture(t, tempDir, "target.xml")

	cfg, err := Load([]string{"--source-path", source, "--target-path", target, "--debug", "--skip-verify"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.SourcePath != source {
		t.Errorf("Expected source path '%s', got '%s'", source, cfg.SourcePath)
	}
	if cfg.TargetPath != target {
		t.Errorf("Expected target path '%s', got '%s'", target, cfg.TargetPath)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if !cfg.SkipVerify {
		t.Error("Expected skip-verify to be enabled")
	}
	if cfg.DryRun {
		t.Error("Expected dry-run to be disabled by default")
	}
	if cfg.Output() != target {
		t.Errorf("Expected output to default to target '%s', got '%s'", target, cfg.Output())
	}
	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadOutputOverride(t *testing.T) {
	tempDir := t.TempDir()
	source := writeFixture(t, tempDir, "source.xml")
	target := writeFixture(t, tempDir, "target.xml")
	output := filepath.Join(tempDir, "published", "appcast.xml")

	cfg, err := Load([]string{"--source-path", source, "--target-path", target, "--output-path", output})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Output() != output {
		t.Errorf("Expected output '%s', got '%s'", output, cfg.Output())
	}
}

func TestLoadMissingRequiredArgument(t *testing.T) {
	tempDir := t.TempDir()
	source := writeFixture(t, tempDir, "source.xml")
	t.Setenv("APPCAST_TARGET_PATH", "")

	_, err := Load([]string{"--source-path", source})
	if err == nil {
		t.Fatal("Expected error for missing target path")
	}
	if !apperrors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("Expected configuration error, got: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	tempDir := t.TempDir()
	target := writeFixture(t, tempDir, "target.xml")
	missing := filepath.Join(tempDir, "missing.xml")

	_, err := Load([]string{"--source-path", missing, "--target-path", target})
	if err == nil {
		t.Fatal("Expected error for missing source file")
	}
	if !apperrors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("Expected configuration error, got: %v", err)
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected wrapped not found error, got: %v", err)
	}

	var notFound *apperrors.NotFoundError
	if !apperrors.As(err, &notFound) {
		t.Fatal("Expected NotFoundError in chain")
	}
	if notFound.Name != "Source XML" {
		t.Errorf("Expected name 'Source XML', got '%s'", notFound.Name)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	tempDir := t.TempDir()
	source := writeFixture(t, tempDir, "source.xml")
	target := writeFixture(t, tempDir, "target.xml")

	t.Setenv("APPCAST_SOURCE_PATH", source)
	t.Setenv("APPCAST_TARGET_PATH", target)
	t.Setenv("DRY_RUN", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.SourcePath != source {
		t.Errorf("Expected source path from env '%s', got '%s'", source, cfg.SourcePath)
	}
	if !cfg.DryRun {
		t.Error("Expected dry-run from env to be enabled")
	}
}

func TestLoadHelp(t *testing.T) {
	cfg, err := Load([]string{"--help"})
	if err != nil {
		t.Fatalf("Expected no error for help, got: %v", err)
	}
	if cfg != nil {
		t.Error("Expected nil configuration when help is requested")
	}
}

func TestValidateRejectsDirectory(t *testing.T) {
	tempDir := t.TempDir()
	target := writeFixture(t, tempDir, "target.xml")

	cfg := &Cfg{SourcePath: tempDir, TargetPath: target}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error when source path is a directory")
	}
	if !apperrors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("Expected configuration error, got: %v", err)
	}
}
