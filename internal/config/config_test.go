package config

import (
	"strings"
	"testing"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("PLEX_URL", "http://plex:32400")
	t.Setenv("PLEX_TOKEN", "secret")
	t.Setenv("PLEX_ANIME_SERIES", "Anime Series")
	t.Setenv("PLEX_ANIME_MOVIES", "")
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxCollectionSize != 100 {
		t.Errorf("expected default collection size 100, got %d", cfg.MaxCollectionSize)
	}
	if cfg.MaxDateDiff != 4 {
		t.Errorf("expected default recency window 4, got %d", cfg.MaxDateDiff)
	}
	if cfg.CollectionName != "Latest Dubs" {
		t.Errorf("expected default collection name, got %q", cfg.CollectionName)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if !strings.HasSuffix(cfg.LedgerFile, "deleted_media_ids.txt") {
		t.Errorf("unexpected ledger path %q", cfg.LedgerFile)
	}
}

func TestLoadAccumulatesAllErrors(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("PLEX_URL", "")
	t.Setenv("PLEX_TOKEN", "")
	t.Setenv("PLEX_ANIME_SERIES", "")
	t.Setenv("PLEX_ANIME_MOVIES", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation errors for empty configuration")
	}

	// All problems reported together, not one per run.
	msg := err.Error()
	for _, want := range []string{"PLEX_URL", "PLEX_TOKEN", "PLEX_ANIME_SERIES"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %s, got: %v", want, err)
		}
	}
}

func TestLoadRejectsInvalidURL(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PLEX_URL", "not-a-url")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
	if !strings.Contains(err.Error(), "not a valid URL") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadRequiresAtLeastOneLibrary(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PLEX_ANIME_SERIES", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when no library is configured")
	}
}
