package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"

	"github.com/rs/zerolog/log"
)

var errNoImage = errors.New("no image loaded")

// DroppedFile is one file from a drop payload.
type DroppedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Editor owns the placement, drag state and pending load of one avatar
// editor. It is not safe for concurrent use; Session serializes access.
type Editor struct {
	ctx        context.Context
	config     Config
	placement  Placement
	controller Controller
	loader     *Loader
}

func NewEditor(config Config, decoder Decoder) (*Editor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if decoder == nil {
		decoder = SourceDecoder{}
	}
	return &Editor{
		ctx:    context.Background(),
		config: config,
		loader: NewLoader(decoder),
	}, nil
}

// Init binds the editor to ctx, which bounds every load it starts, and
// begins loading the configured image.
func (e *Editor) Init(ctx context.Context) {
	e.ctx = ctx
	if e.config.Image != "" {
		e.Load(e.config.Image)
	}
}

func (e *Editor) Config() Config {
	return e.config
}

func (e *Editor) Dimensions() Dimensions {
	return e.config.Dimensions()
}

func (e *Editor) Placement() Placement {
	return e.placement
}

func (e *Editor) Dragging() bool {
	return e.controller.Dragging()
}

func (e *Editor) Solver() Solver {
	return Solver{
		Dims:   e.Dimensions(),
		Scale:  e.config.Scale,
		Policy: e.config.Bounds,
	}
}

// Load starts loading source, superseding any load still in flight.
func (e *Editor) Load(source string) uint64 {
	generation := e.loader.Start(e.ctx, source)
	log.Ctx(e.ctx).Debug().
		Uint64("generation", generation).
		Str("source", sourceLabel(source)).
		Msg("image load started")
	return generation
}

// Loads delivers finished loads; pass each one to ImageLoaded.
func (e *Editor) Loads() <-chan LoadResult {
	return e.loader.Results()
}

// ImageLoaded commits a finished load and reports whether it was accepted.
// Results of superseded loads are discarded.
func (e *Editor) ImageLoaded(res LoadResult) bool {
	if res.Generation != e.loader.Current() || res.Image == nil {
		log.Ctx(e.ctx).Debug().
			Uint64("generation", res.Generation).
			Uint64("current", e.loader.Current()).
			Msg("discarding stale image load")
		return false
	}

	e.place(res.Image)

	bounds := res.Image.Bounds()
	log.Ctx(e.ctx).Info().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Float64("fit_width", e.placement.Width).
		Float64("fit_height", e.placement.Height).
		Msg("image ready")

	if fn := e.config.OnImageReady; fn != nil {
		fn()
	}
	return true
}

// place fits img to the current dimensions and puts it at rest in the
// frame. Any drag in progress is dropped.
func (e *Editor) place(img image.Image) {
	bounds := img.Bounds()
	fit := FitCover(float64(bounds.Dx()), float64(bounds.Dy()), e.Dimensions())
	border := float64(e.config.Border)

	e.placement = Placement{
		Resource: img,
		X:        border,
		Y:        border,
		Width:    fit.Width,
		Height:   fit.Height,
	}
	e.controller.Up()
}

// SetScale changes the zoom and re-bounds the current placement.
func (e *Editor) SetScale(scale float64) error {
	cfg := e.config
	cfg.Scale = scale
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.config = cfg
	e.squeeze()
	return nil
}

// Update replaces the configuration. A new image source starts a load. New
// dimensions refit the current image and put it back at rest; a scale or
// bound policy change re-bounds the placement where it is.
func (e *Editor) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	prev := e.config
	e.config = cfg

	if cfg.Image != prev.Image && cfg.Image != "" {
		e.Load(cfg.Image)
	}
	switch {
	case cfg.Dimensions() != prev.Dimensions():
		if e.placement.Ready() {
			e.place(e.placement.Resource)
		}
	case cfg.Scale != prev.Scale || cfg.Bounds != prev.Bounds:
		e.squeeze()
	}
	return nil
}

func (e *Editor) squeeze() {
	if !e.placement.Ready() {
		return
	}
	bx, by := e.Solver().Solve(e.placement, e.placement.X, e.placement.Y)
	e.placement.X, e.placement.Y = bx.Position, by.Position
}

// HandlePointer feeds a normalized pointer event to the drag controller
// and reports whether the placement moved.
func (e *Editor) HandlePointer(ev PointerEvent) bool {
	switch ev.Kind {
	case PointerDown:
		e.controller.Down()
	case PointerMove:
		return e.controller.Move(&e.placement, ev.X, ev.Y, e.Solver())
	case PointerUp:
		if e.controller.Dragging() {
			e.controller.Up()
		}
	}
	return false
}

// Drop loads the first dropped file. An empty payload is ignored.
func (e *Editor) Drop(files []DroppedFile) bool {
	if len(files) == 0 || len(files[0].Data) == 0 {
		return false
	}

	file := files[0]
	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(file.Data)
	}

	log.Ctx(e.ctx).Debug().Str("name", file.Name).Str("type", contentType).Int("bytes", len(file.Data)).Msg("file dropped")
	e.Load("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(file.Data))
	return true
}

// Preview renders the canvas: border bands plus the image at its current
// placement.
func (e *Editor) Preview() *image.RGBA {
	dims := e.Dimensions()
	surface := image.NewRGBA(dims.CanvasRect())
	PaintPreview(surface, dims, e.config.Color.NRGBA(), e.placement, e.config.Scale)
	return surface
}

// Export renders the crop without the border and encodes it as a data URL.
func (e *Editor) Export(mimeType string, quality float64) (string, error) {
	if !e.placement.Ready() {
		return "", errNoImage
	}
	img := RenderExport(e.Dimensions(), e.placement, e.config.Scale)
	dataURL, err := EncodeDataURL(img, mimeType, quality)
	if err != nil {
		return "", fmt.Errorf("failed to export avatar: %w", err)
	}
	return dataURL, nil
}

// Close waits for in-flight loads. Cancel the Init context first so that
// loads nobody is receiving can give up.
func (e *Editor) Close() {
	e.loader.Wait()
}
