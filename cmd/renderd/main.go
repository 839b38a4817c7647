package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"markbench/internal/common/config"
	"markbench/internal/common/middleware"
	"markbench/internal/handlers"
	"markbench/internal/manifest"
	"markbench/internal/pipeline"
	"markbench/internal/render"
	"markbench/internal/render/raster"
	"markbench/internal/storage"
	"markbench/internal/variant"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Render Service
// ============================================================

func main() {
	cfg := config.Load()

	var ledger *manifest.Repository
	if cfg.ManifestDB != "" {
		repo, err := manifest.Open(context.Background(), cfg.ManifestDB)
		if err != nil {
			log.Fatalf("open manifest: %v", err)
		}
		defer repo.Close()
		ledger = repo
	}

	rast, err := raster.New(cfg.RasterBackend, cfg.RSVGBin)
	if err != nil {
		log.Printf("[RASTER] %v; PNG export disabled", err)
		rast = raster.None{}
	}

	style := render.DefaultStyle()
	style.Canvas = cfg.CanvasSize
	renderer := render.NewRenderer(style, nil)
	mutator := variant.NewMutator(variant.DefaultConfig(), renderer, nil)
	p := pipeline.New(pipeline.DefaultConfig(), storage.NewFileStorage(cfg.ItemsDir), renderer, mutator, rast, ledger, nil)

	renderHandler := handlers.NewRenderHandler(renderer, mutator, p, ledger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		AppName:      "Render Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ready",
			"raster":   rast.Name(),
			"manifest": ledger != nil,
		})
	})

	// ============================================================
	// Render Routes
	// ============================================================

	renderHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Render Service on %s (env: %s, items: %s)", addr, cfg.Environment, cfg.ItemsDir)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
