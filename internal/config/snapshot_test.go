package config

import "testing"

func TestSnapshotStable(t *testing.T) {
	cfg := &Config{
		Site:   SiteConfig{Title: "Articles", BaseURL: "https://x"},
		Source: SourceConfig{Dir: "./content", Exclude: []string{"drafts/*"}},
		Output: OutputConfig{Directory: "./public"},
	}

	first := cfg.Snapshot()
	if first == "" {
		t.Fatal("snapshot should not be empty")
	}
	if again := cfg.Snapshot(); again != first {
		t.Fatalf("snapshot not stable: %s vs %s", first, again)
	}
}

func TestSnapshotSensitivity(t *testing.T) {
	base := func() *Config {
		return &Config{
			Site:   SiteConfig{Title: "Articles"},
			Source: SourceConfig{Dir: "./content"},
			Output: OutputConfig{Directory: "./public"},
		}
	}

	ref := base().Snapshot()

	changed := base()
	changed.Site.Title = "Other"
	if changed.Snapshot() == ref {
		t.Error("title change should perturb the snapshot")
	}

	changed = base()
	changed.Source.Exclude = []string{"drafts/*"}
	if changed.Snapshot() == ref {
		t.Error("exclude pattern change should perturb the snapshot")
	}

	// Runtime knobs must not perturb it.
	same := base()
	same.Serve = &ServeConfig{HTTP: HTTPConfig{SitePort: 9999}}
	same.Logging = LoggingConfig{Level: LogLevelDebug}
	if same.Snapshot() != ref {
		t.Error("serve/logging changes should not perturb the snapshot")
	}

	var nilCfg *Config
	if nilCfg.Snapshot() != "" {
		t.Error("nil config snapshot should be empty")
	}
}
