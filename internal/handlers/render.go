package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"markbench/internal/manifest"
	"markbench/internal/pipeline"
	"markbench/internal/render"
	"markbench/internal/scene"
	"markbench/internal/storage"
	"markbench/internal/validate"
	"markbench/internal/variant"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Render Handler
// ============================================================

type RenderHandler struct {
	renderer *render.Renderer
	mutator  *variant.Mutator
	pipeline *pipeline.Pipeline
	ledger   *manifest.Repository
}

// NewRenderHandler собирает обработчики. pipeline и ledger могут быть nil:
// тогда маршруты items отвечают 503.
func NewRenderHandler(renderer *render.Renderer, mutator *variant.Mutator, p *pipeline.Pipeline, ledger *manifest.Repository) *RenderHandler {
	return &RenderHandler{
		renderer: renderer,
		mutator:  mutator,
		pipeline: p,
		ledger:   ledger,
	}
}

// Register вешает маршруты на app.
func (h *RenderHandler) Register(app *fiber.App) {
	app.Post("/render", h.Render)
	app.Post("/render/svg", h.RenderSVG)
	app.Post("/variants", h.Variants)
	app.Post("/validate", h.Validate)

	app.Post("/items/:id/build", h.BuildItem)
	app.Get("/items/:id/artifacts", h.ListArtifacts)
}

type renderResponse struct {
	ID    string          `json:"id"`
	SVG   string          `json:"svg"`
	Facts json.RawMessage `json:"facts"`
}

type variantsRequest struct {
	Scene    json.RawMessage `json:"scene"`
	Variants json.RawMessage `json:"variants"`
}

type variantResponse struct {
	VariantID string          `json:"variant_id"`
	Image     *string         `json:"image"`
	SVG       string          `json:"svg,omitempty"`
	Facts     json.RawMessage `json:"facts"`
}

// Render принимает сцену (JSON/YAML в теле или multipart "file") и
// возвращает SVG и fact-export. Query: rotate, opacity.
func (h *RenderHandler) Render(c fiber.Ctx) error {
	out, s, err := h.renderBody(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(renderResponse{ID: s.ID(), SVG: string(out.SVG), Facts: out.Facts})
}

// RenderSVG: то же, что Render, но отдаёт сам SVG.
func (h *RenderHandler) RenderSVG(c fiber.Ctx) error {
	out, _, err := h.renderBody(c)
	if err != nil {
		return fail(c, err)
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.Send(out.SVG)
}

// Variants рендерит все варианты сцены; текстовые варианты (image: null) без SVG.
func (h *RenderHandler) Variants(c fiber.Ctx) error {
	base, vs, err := decodeEnvelope(c)
	if err != nil {
		return fail(c, err)
	}
	if err := pipeline.Gate(base, vs); err != nil {
		return fail(c, err)
	}

	resp := make([]variantResponse, 0, len(vs))
	for _, v := range vs {
		res, err := h.mutator.Apply(base, v)
		if err != nil {
			return fail(c, err)
		}
		item := variantResponse{VariantID: v.ID, Image: v.Image, Facts: res.Output.Facts}
		if v.Image != nil {
			item.SVG = string(res.Output.SVG)
		}
		resp = append(resp, item)
	}

	log.Printf("[HTTP] %s: rendered %d variants", base.ID(), len(resp))
	return c.JSON(resp)
}

// Validate возвращает отчёт проверок. Сцена, не прошедшая схему или ссылки, даёт 422.
func (h *RenderHandler) Validate(c fiber.Ctx) error {
	base, vs, err := decodeEnvelope(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(validate.Check(base, vs))
}

// ============================================================
// Items
// ============================================================

// BuildItem запускает pipeline для items/<id>.
func (h *RenderHandler) BuildItem(c fiber.Ctx) error {
	if h.pipeline == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "pipeline disabled"})
	}
	itemID, err := itemParam(c)
	if err != nil {
		return fail(c, err)
	}
	sum, err := h.pipeline.Run(context.Background(), itemID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(sum)
}

func (h *RenderHandler) ListArtifacts(c fiber.Ctx) error {
	if h.ledger == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "manifest disabled"})
	}

	itemID, err := itemParam(c)
	if err != nil {
		return fail(c, err)
	}
	ctx := context.Background()
	run, err := h.ledger.LatestRun(ctx, itemID)
	if err != nil {
		return fail(c, err)
	}
	arts, err := h.ledger.ListByItem(ctx, itemID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"latest_run": run, "artifacts": arts})
}

// ============================================================
// Helpers
// ============================================================

// errBadRequest: тело запроса нельзя даже разобрать.
var errBadRequest = errors.New("bad request")

// itemParam достаёт :id и проверяет, что это имя одного каталога.
func itemParam(c fiber.Ctx) (string, error) {
	id := c.Params("id")
	if raw, err := url.PathUnescape(id); err == nil {
		id = raw
	}
	if err := storage.CheckItemID(id); err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return id, nil
}

func (h *RenderHandler) renderBody(c fiber.Ctx) (*render.Output, *scene.Scene, error) {
	opts, err := renderOptions(c)
	if err != nil {
		return nil, nil, err
	}
	data, err := readDocument(c)
	if err != nil {
		return nil, nil, err
	}
	s, err := scene.Load(data)
	if err != nil {
		return nil, nil, err
	}
	out, err := h.renderer.Render(s, opts)
	if err != nil {
		return nil, nil, err
	}
	return out, s, nil
}

// readDocument берёт документ из multipart-поля file или из тела запроса.
func readDocument(c fiber.Ctx) ([]byte, error) {
	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: file required in multipart/form-data", errBadRequest)
		}
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	if len(c.Body()) == 0 {
		return nil, fmt.Errorf("%w: body required", errBadRequest)
	}
	return c.Body(), nil
}

func decodeEnvelope(c fiber.Ctx) (*scene.Scene, []variant.Variant, error) {
	if len(c.Body()) == 0 {
		return nil, nil, fmt.Errorf("%w: body required", errBadRequest)
	}

	var req variantsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid json payload", errBadRequest)
	}
	if len(req.Scene) == 0 {
		return nil, nil, fmt.Errorf("%w: scene required", errBadRequest)
	}

	base, err := scene.Load(req.Scene)
	if err != nil {
		return nil, nil, err
	}
	if len(req.Variants) == 0 || string(req.Variants) == "null" {
		return base, nil, nil
	}
	vs, err := variant.Load(req.Variants)
	if err != nil {
		return nil, nil, err
	}
	return base, vs, nil
}

func renderOptions(c fiber.Ctx) (render.Options, error) {
	opts := render.DefaultOptions()
	if v := c.Query("rotate"); v != "" {
		deg, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: rotate must be a number", errBadRequest)
		}
		opts.RotationDeg = deg
	}
	if v := c.Query("opacity"); v != "" {
		op, err := strconv.ParseFloat(v, 64)
		if err != nil || op <= 0 || op > 1 {
			return opts, fmt.Errorf("%w: opacity must be in (0, 1]", errBadRequest)
		}
		opts.SymbolOpacity = op
	}
	return opts, nil
}

// fail переводит ошибку в статус и JSON {"error": ...}.
func fail(c fiber.Ctx, err error) error {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}

	body := fiber.Map{"error": err.Error()}
	var verr *scene.ValidationError
	if errors.As(err, &verr) {
		body["issues"] = verr.Issues
	}
	var lerr *validate.LinkageError
	if errors.As(err, &lerr) {
		body["unlinked"] = lerr.Unlinked
		body["multi_linked"] = lerr.MultiLinked
	}
	var vErr *validate.VariantError
	if errors.As(err, &vErr) {
		body["issues"] = vErr.Issues
	}
	return c.Status(status).JSON(body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, manifest.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, scene.ErrSchema),
		errors.Is(err, scene.ErrReference),
		errors.Is(err, variant.ErrUnknownOp),
		errors.Is(err, variant.ErrUnknownTarget),
		errors.Is(err, validate.ErrLinkage),
		errors.Is(err, validate.ErrDecisive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
