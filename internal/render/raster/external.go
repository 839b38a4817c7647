package raster

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"markbench/internal/render"
)

// External растеризует SVG внешним бинарником rsvg-convert.
type External struct {
	path string
}

func NewExternal(bin string) (*External, error) {
	if bin == "" {
		bin = "rsvg-convert"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, bin, err)
	}
	return &External{path: path}, nil
}

func (e *External) Name() string { return "rsvg" }

func (e *External) Rasterize(ctx context.Context, _ *render.Drawing, svg []byte, dpi int) ([]byte, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid dpi %d", dpi)
	}

	// Размеры SVG в px, поэтому dpi переводится в zoom относительно 96.
	zoom := strconv.FormatFloat(float64(dpi)/96, 'f', -1, 64)
	cmd := exec.CommandContext(ctx, e.path, "--format", "png", "--zoom", zoom)
	cmd.Stdin = bytes.NewReader(svg)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
