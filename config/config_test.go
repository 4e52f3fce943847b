package config

import (
	"testing"
	"time"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := ParseArgs([]string{"-token-secret", "s3cr3t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != "0.0.0.0:80" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.TokenTTL != 120*time.Second {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.MaxTextLength != 0 {
		t.Errorf("MaxTextLength = %d, want unbounded", cfg.MaxTextLength)
	}
	if cfg.MaxUploadSize != 10<<20 {
		t.Errorf("MaxUploadSize = %d", cfg.MaxUploadSize)
	}
	if cfg.Url() != "http://localhost:80" {
		t.Errorf("Url() = %q", cfg.Url())
	}
}

func TestParseArgsErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"-token-secret", "x", "-max-text-length", "-1"},
		{"-token-secret", "x", "-max-upload-size", "0"},
		{"-token-secret", "x", "-admin-user", "root"},
	} {
		if _, err := ParseArgs(args); err == nil {
			t.Errorf("ParseArgs(%q): expected an error", args)
		}
	}
}
