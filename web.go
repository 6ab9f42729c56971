package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/rs/zerolog/log"
)

//go:embed static
var staticFS embed.FS
var isDebug = os.Getenv("DEBUG") == "1"

type WebConfig struct {
	Addr             string
	OnBeforeShutdown func()
	OnReady          func(addr string)
	OnExport         func(dataURL string)
}

type WebApp struct {
	config       WebConfig
	session      *Session
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func NewWebApp(config WebConfig, session *Session) *WebApp {
	return &WebApp{
		config:     config,
		session:    session,
		shutdownCh: make(chan struct{}),
	}
}

func (a *WebApp) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
	})
}

type placementResponse struct {
	Ready  bool    `json:"ready"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type stateResponse struct {
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Border    int               `json:"border"`
	Canvas    CanvasSize        `json:"canvas"`
	Scale     float64           `json:"scale"`
	Image     string            `json:"image,omitempty"`
	Dragging  bool              `json:"dragging"`
	Placement placementResponse `json:"placement"`
	Paint     *Rect             `json:"paint,omitempty"`
}

func newStateResponse(e *Editor) stateResponse {
	cfg := e.Config()
	dims := e.Dimensions()
	p := e.Placement()
	resp := stateResponse{
		Width:    dims.Width,
		Height:   dims.Height,
		Border:   dims.Border,
		Canvas:   dims.Canvas,
		Scale:    cfg.Scale,
		Image:    sourceLabel(cfg.Image),
		Dragging: e.Dragging(),
		Placement: placementResponse{
			Ready:  p.Ready(),
			X:      p.X,
			Y:      p.Y,
			Width:  p.Width,
			Height: p.Height,
		},
	}
	if p.Ready() {
		paint := PaintRect(p, cfg.Scale, dims)
		resp.Paint = &paint
	}
	return resp
}

type configRequest struct {
	Scale *float64 `json:"scale"`
	Image *string  `json:"image"`
}

func (a *WebApp) newApp(ctx context.Context) *fiber.App {
	webapp := fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Ctx(ctx).Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("Request failed")
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				if fiberErr.Code == http.StatusNotFound && c.Path() == "/favicon.ico" {
					return nil
				}
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			if errors.Is(err, errSessionClosed) {
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		},
	})

	webapp.Hooks().OnListen(func(listen fiber.ListenData) error {
		if fn := a.config.OnReady; fn != nil {
			fn(fmt.Sprintf("http://%s:%s", listen.Host, listen.Port))
		}
		return nil
	})

	webapp.Get("/api/state", func(c *fiber.Ctx) error {
		var resp stateResponse
		if err := a.session.Do(c.UserContext(), func(e *Editor) {
			resp = newStateResponse(e)
		}); err != nil {
			return err
		}
		return c.JSON(resp)
	})

	webapp.Get("/api/surface.png", func(c *fiber.Ctx) error {
		var surface *image.RGBA
		if err := a.session.Do(c.UserContext(), func(e *Editor) {
			surface = e.Preview()
		}); err != nil {
			return err
		}

		var b bytes.Buffer
		if err := imaging.Encode(&b, surface, imaging.PNG); err != nil {
			return fmt.Errorf("failed to encode surface: %w", err)
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Type("png")
		return c.Send(b.Bytes())
	})

	webapp.Post("/api/pointer", func(c *fiber.Ctx) error {
		var raw RawPointer
		if err := c.BodyParser(&raw); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		ev, err := raw.Normalize()
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		var moved bool
		if err := a.session.Do(c.UserContext(), func(e *Editor) {
			moved = e.HandlePointer(ev)
		}); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"moved": moved})
	})

	webapp.Post("/api/config", func(c *fiber.Ctx) error {
		var request configRequest
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		var updateErr error
		if err := a.session.Do(c.UserContext(), func(e *Editor) {
			cfg := e.Config()
			if request.Scale != nil {
				cfg.Scale = *request.Scale
			}
			if request.Image != nil {
				cfg.Image = *request.Image
			}
			updateErr = e.Update(cfg)
		}); err != nil {
			return err
		}
		if updateErr != nil {
			return fiber.NewError(http.StatusBadRequest, updateErr.Error())
		}
		return c.SendStatus(http.StatusNoContent)
	})

	webapp.Post("/api/drop", func(c *fiber.Ctx) error {
		files, err := droppedFiles(c)
		if err != nil {
			return err
		}

		var accepted bool
		if err := a.session.Do(c.UserContext(), func(e *Editor) {
			accepted = e.Drop(files)
		}); err != nil {
			return err
		}
		if !accepted {
			return c.SendStatus(http.StatusNoContent)
		}
		return c.SendStatus(http.StatusAccepted)
	})

	webapp.Get("/api/export", func(c *fiber.Ctx) error {
		mimeType := c.Query("type", "image/png")
		quality, err := strconv.ParseFloat(c.Query("quality", "0.92"), 64)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid quality")
		}

		var dataURL string
		var exportErr error
		if err := a.session.Do(c.UserContext(), func(e *Editor) {
			dataURL, exportErr = e.Export(mimeType, quality)
		}); err != nil {
			return err
		}
		if errors.Is(exportErr, errNoImage) {
			return fiber.NewError(http.StatusConflict, exportErr.Error())
		}
		if exportErr != nil {
			return exportErr
		}

		if fn := a.config.OnExport; fn != nil {
			fn(dataURL)
		}
		return c.JSON(fiber.Map{"data": dataURL})
	})

	webapp.Post("/api/shutdown", func(c *fiber.Ctx) error {
		a.Shutdown()
		return nil
	})

	if isDebug {
		log.Debug().Msg("Debug mode enabled, serving static files from './static' directory")
		webapp.Static("/", "static")
	} else {
		log.Debug().Msg("Serving static files from embedded filesystem")
		webapp.Use("/", filesystem.New(filesystem.Config{
			Root:       http.FS(staticFS),
			PathPrefix: "/static",
		}))
	}

	return webapp
}

// droppedFiles reads the files of a multipart drop payload. Field names are
// visited in sorted order so "first file" is stable.
func droppedFiles(c *fiber.Ctx) ([]DroppedFile, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, err.Error())
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var files []DroppedFile
	for _, field := range fields {
		for _, header := range form.File[field] {
			f, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open dropped file %s: %w", header.Filename, err)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read dropped file %s: %w", header.Filename, err)
			}
			files = append(files, DroppedFile{
				Name:        header.Filename,
				ContentType: header.Header.Get(fiber.HeaderContentType),
				Data:        data,
			})
		}
	}
	return files, nil
}

func (a *WebApp) Run(ctx context.Context) error {
	webapp := a.newApp(ctx)

	go func() {
		select {
		case <-ctx.Done():
		case <-a.shutdownCh:
		}
		if fn := a.config.OnBeforeShutdown; fn != nil {
			fn()
		}
		if err := webapp.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to shutdown web application")
		}
	}()

	addr := a.config.Addr
	if addr == "" {
		// Let the OS assign a random available port
		addr = fmt.Sprintf("localhost:%d", 0)
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	if err := webapp.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
