package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateArtifactName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"dop_000.png", false},
		{"sky chart.html", false},
		{"", true},
		{".", true},
		{"..", true},
		{"../escape.png", true},
		{"sub/dir.png", true},
		{`win\dir.png`, true},
		{"nul\x00.png", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArtifactName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArtifactName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	for _, d := range []string{safeDir, unsafeDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	symlinkPath := filepath.Join(safeDir, "evil-symlink")
	if err := os.Symlink(unsafeDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		dir       string
		wantError bool
	}{
		{"file in directory", filepath.Join(safeDir, "dop.png"), safeDir, false},
		{"nested file not yet created", filepath.Join(safeDir, "run", "dop.png"), safeDir, false},
		{"parent reference", filepath.Join(safeDir, "..", "dop.png"), safeDir, true},
		{"relative escape", "../../../etc/passwd", safeDir, true},
		{"absolute path outside", "/etc/passwd", safeDir, true},
		{"through symlink", filepath.Join(symlinkPath, "dop.png"), safeDir, true},
		{"symlink itself", symlinkPath, safeDir, true},
		{"missing directory", filepath.Join(tmpDir, "nope", "x"), filepath.Join(tmpDir, "nope"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.dir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "unknown"},
		{"greenwich", "greenwich"},
		{"Sydney 2025/12/21", "Sydney_2025_12_21"},
		{"a::b", "a_b"},
		{"..hidden..", "hidden"},
		{"___", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	if got := SanitizeFilename(string(long)); len(got) != 128 {
		t.Errorf("SanitizeFilename(300 bytes) has length %d, want 128", len(got))
	}
}
