package raster

import (
	"context"
	"errors"
	"fmt"

	"markbench/internal/render"
)

// ErrBackendUnavailable: растровый бэкенд не может работать в этом окружении.
// Вызывающий код логирует и продолжает без PNG.
var ErrBackendUnavailable = errors.New("raster backend unavailable")

// DefaultDPIs: набор разрешений для экспорта.
var DefaultDPIs = []int{96, 144, 300}

// Rasterizer превращает рендер в PNG. Нативный бэкенд рисует Drawing,
// внешний конвертирует SVG.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, d *render.Drawing, svg []byte, dpi int) ([]byte, error)
}

// New выбирает бэкенд по имени: native, rsvg или none.
func New(name, rsvgBin string) (Rasterizer, error) {
	switch name {
	case "", "native":
		return NewNative()
	case "rsvg":
		return NewExternal(rsvgBin)
	case "none":
		return None{}, nil
	}
	return nil, fmt.Errorf("unknown raster backend %q", name)
}

// None: выключенный растр.
type None struct{}

func (None) Name() string { return "none" }

func (None) Rasterize(context.Context, *render.Drawing, []byte, int) ([]byte, error) {
	return nil, fmt.Errorf("%w: raster output disabled", ErrBackendUnavailable)
}

// Path возвращает путь PNG для базового пути без расширения: <base>_<dpi>.png.
func Path(base string, dpi int) string {
	return fmt.Sprintf("%s_%d.png", base, dpi)
}

// File: записанный PNG.
type File struct {
	Path string
	DPI  int
	Data []byte
}

// SaveFunc записывает готовый файл (обычно storage.FileStorage.SaveFile).
type SaveFunc func(path string, data []byte) error

// Export растеризует рендер для каждого dpi, отдаёт PNG в save и возвращает записанные файлы.
func Export(ctx context.Context, r Rasterizer, d *render.Drawing, svg []byte, base string, dpis []int, save SaveFunc) ([]File, error) {
	var written []File
	for _, dpi := range dpis {
		data, err := r.Rasterize(ctx, d, svg, dpi)
		if err != nil {
			return written, fmt.Errorf("%s raster at %d dpi: %w", r.Name(), dpi, err)
		}

		path := Path(base, dpi)
		if err := save(path, data); err != nil {
			return written, err
		}
		written = append(written, File{Path: path, DPI: dpi, Data: data})
	}
	return written, nil
}
