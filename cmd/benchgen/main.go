package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"markbench/internal/common/config"
	"markbench/internal/manifest"
	"markbench/internal/pipeline"
	"markbench/internal/render"
	"markbench/internal/render/raster"
	"markbench/internal/storage"
	"markbench/internal/validate"
	"markbench/internal/variant"
)

const usage = `usage: benchgen <command> [flags] [item...]

commands:
  render    render base scenes (svg, facts, png)
  variants  render variants only
  validate  run linkage and decisiveness checks, print a report
  build     validate, render base and variants, record the manifest

Without item ids every directory under -items that holds a scene is processed.
`

// ============================================================
// Entry point
// ============================================================

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "render":
		err = runPipeline(ctx, args, pipeline.StageBase)
	case "variants":
		err = runPipeline(ctx, args, pipeline.StageVariants)
	case "build":
		err = runPipeline(ctx, args, pipeline.StageAll)
	case "validate":
		err = runValidate(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Printf("[BENCHGEN] %s: %v", cmd, err)
		os.Exit(1)
	}
}

// ============================================================
// Flags
// ============================================================

type options struct {
	cfg     *config.Config
	skipPNG bool
	dpis    string
	workers int
}

func parseFlags(name string, args []string) (*options, []string, error) {
	cfg := config.Load()
	o := &options{cfg: cfg}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.ItemsDir, "items", cfg.ItemsDir, "items root directory")
	fs.StringVar(&cfg.ManifestDB, "db", cfg.ManifestDB, "manifest sqlite path (empty disables)")
	fs.StringVar(&cfg.RasterBackend, "raster", cfg.RasterBackend, "raster backend: native, rsvg, none")
	fs.StringVar(&cfg.RSVGBin, "rsvg-bin", cfg.RSVGBin, "rsvg-convert binary")
	fs.Float64Var(&cfg.CanvasSize, "canvas", cfg.CanvasSize, "canvas size in px")
	fs.BoolVar(&o.skipPNG, "skip-png", false, "do not write PNG files")
	fs.StringVar(&o.dpis, "dpi", "96,144,300", "comma-separated PNG resolutions")
	fs.IntVar(&o.workers, "workers", pipeline.DefaultConfig().Workers, "variants rendered concurrently")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return o, fs.Args(), nil
}

func parseDPIs(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dpi, err := strconv.Atoi(part)
		if err != nil || dpi <= 0 {
			return nil, fmt.Errorf("invalid dpi %q", part)
		}
		out = append(out, dpi)
	}
	if len(out) == 0 {
		return raster.DefaultDPIs, nil
	}
	return out, nil
}

// ============================================================
// Commands
// ============================================================

func runPipeline(ctx context.Context, args []string, stages pipeline.Stage) error {
	o, items, err := parseFlags("pipeline", args)
	if err != nil {
		return err
	}
	dpis, err := parseDPIs(o.dpis)
	if err != nil {
		return err
	}

	var ledger *manifest.Repository
	if o.cfg.ManifestDB != "" {
		ledger, err = manifest.Open(ctx, o.cfg.ManifestDB)
		if err != nil {
			return fmt.Errorf("open manifest: %w", err)
		}
		defer ledger.Close()
	}

	var rast raster.Rasterizer = raster.None{}
	if !o.skipPNG {
		rast, err = raster.New(o.cfg.RasterBackend, o.cfg.RSVGBin)
		if errors.Is(err, raster.ErrBackendUnavailable) {
			log.Printf("[RASTER] %v; continuing without PNG", err)
			rast = raster.None{}
		} else if err != nil {
			return err
		}
	}

	style := render.DefaultStyle()
	style.Canvas = o.cfg.CanvasSize
	renderer := render.NewRenderer(style, nil)
	mutator := variant.NewMutator(variant.DefaultConfig(), renderer, nil)
	store := storage.NewFileStorage(o.cfg.ItemsDir)

	p := pipeline.New(pipeline.Config{SkipPNG: o.skipPNG, DPIs: dpis, Workers: o.workers},
		store, renderer, mutator, rast, ledger, nil)

	if len(items) == 0 {
		if items, err = store.Items(); err != nil {
			return err
		}
	}

	var errs []error
	for _, id := range items {
		sum, err := p.RunStages(ctx, id, stages)
		if err != nil {
			log.Printf("[BENCHGEN] %s: %v", id, err)
			errs = append(errs, err)
			continue
		}
		fmt.Printf("%s: run %s, %d variants, %d artifacts\n", id, sum.RunID, sum.Variants, len(sum.Artifacts))
	}
	return errors.Join(errs...)
}

func runValidate(args []string) error {
	o, items, err := parseFlags("validate", args)
	if err != nil {
		return err
	}
	store := storage.NewFileStorage(o.cfg.ItemsDir)
	p := pipeline.New(pipeline.DefaultConfig(), store, nil, nil, nil, nil, nil)

	if len(items) == 0 {
		if items, err = store.Items(); err != nil {
			return err
		}
	}

	reports := make([]*validate.Report, 0, len(items))
	failed := 0
	for _, id := range items {
		base, vs, err := p.Load(id)
		if err != nil {
			log.Printf("[BENCHGEN] %s: %v", id, err)
			failed++
			continue
		}
		r := validate.Check(base, vs)
		if !r.OK {
			failed++
		}
		reports = append(reports, r)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d items failed validation", failed, len(items))
	}
	return nil
}
