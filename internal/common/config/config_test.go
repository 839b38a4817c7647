package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "READ_TIMEOUT", "BODY_LIMIT_MB", "ITEMS_DIR", "RASTER_BACKEND", "CANVAS_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "3001" || cfg.Environment != "development" || cfg.ReadTimeout != 10 {
		t.Errorf("server defaults = %+v", cfg)
	}
	if cfg.ItemsDir != "items" || cfg.RasterBackend != "native" || cfg.CanvasSize != 400 || cfg.BodyLimitMB != 4 {
		t.Errorf("render defaults = %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CANVAS_SIZE", "512")
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("RASTER_BACKEND", "rsvg")
	t.Setenv("MANIFEST_DB", "")

	cfg := Load()
	if cfg.Port != "8080" || cfg.CanvasSize != 512 || cfg.RasterBackend != "rsvg" {
		t.Errorf("overrides = %+v", cfg)
	}
	if cfg.ReadTimeout != 10 {
		t.Errorf("invalid int not ignored: %d", cfg.ReadTimeout)
	}
	if cfg.ManifestDB != "" {
		t.Errorf("empty MANIFEST_DB should disable the ledger, got %q", cfg.ManifestDB)
	}
}
