package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCRIBA_LISTING_URL", "https://council.example.com/da/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabasePath != "data.sqlite" {
		t.Errorf("expected default database path, got %q", cfg.DatabasePath)
	}
	if cfg.DPI != 150 {
		t.Errorf("expected default dpi 150, got %d", cfg.DPI)
	}
	if cfg.InfoURL != cfg.ListingURL {
		t.Errorf("expected info url to default to listing url, got %q", cfg.InfoURL)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %v", cfg.HTTPTimeout)
	}
}

func TestLoad_NoSourceFails(t *testing.T) {
	t.Setenv("SCRIBA_LISTING_URL", "")
	t.Setenv("SCRIBA_DOCUMENTS", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error with neither listing url nor documents")
	}
}

func TestLoad_DocumentList(t *testing.T) {
	t.Setenv("SCRIBA_DOCUMENTS", "july.pdf, august.pdf ,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d: %v", len(cfg.Documents), cfg.Documents)
	}
	if cfg.Documents[0] != "july.pdf" || cfg.Documents[1] != "august.pdf" {
		t.Errorf("unexpected documents %v", cfg.Documents)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SCRIBA_LISTING_URL", "https://council.example.com/da/")
	t.Setenv("SCRIBA_DPI", "300")
	t.Setenv("SCRIBA_HTTP_TIMEOUT", "90s")
	t.Setenv("SCRIBA_INFO_URL", "https://council.example.com/info")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DPI != 300 {
		t.Errorf("expected dpi 300, got %d", cfg.DPI)
	}
	if cfg.HTTPTimeout != 90*time.Second {
		t.Errorf("expected timeout 90s, got %v", cfg.HTTPTimeout)
	}
	if cfg.InfoURL != "https://council.example.com/info" {
		t.Errorf("expected explicit info url, got %q", cfg.InfoURL)
	}
}
