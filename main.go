package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("avatareditor"),
		kong.Description("Drag, zoom and crop an image into a bordered avatar."),
		kong.UsageOnError(),
	)
	if err := cliCtx.Run(); err != nil {
		return err
	}

	return nil
}

func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.NewConsoleWriter()).Level(level)
	zerolog.DefaultContextLogger = &log.Logger
}

// editorFlags override values from the config file when given.
type editorFlags struct {
	Config string   `help:"YAML file with editor settings" type:"path"`
	Scale  *float64 `help:"Zoom scale (default 1)"`
	Border *int     `help:"Border width in pixels (default 25)"`
	Width  *int     `help:"Crop width in pixels (default 200)"`
	Height *int     `help:"Crop height in pixels (default 200)"`
	Color  string   `help:"Border color as r,g,b,a or #rrggbb[aa] (default 0,0,0,0.5)"`
	Bounds string   `help:"Bound policy: legacy or centered"`
}

func (f editorFlags) load() (Config, error) {
	cfg, err := LoadConfig(f.Config)
	if err != nil {
		return Config{}, err
	}
	if f.Scale != nil {
		cfg.Scale = *f.Scale
	}
	if f.Border != nil {
		cfg.Border = *f.Border
	}
	if f.Width != nil {
		cfg.Width = *f.Width
	}
	if f.Height != nil {
		cfg.Height = *f.Height
	}
	if f.Color != "" {
		c, err := ParseColor(f.Color)
		if err != nil {
			return Config{}, err
		}
		cfg.Color = c
	}
	if f.Bounds != "" {
		cfg.Bounds = BoundPolicy(f.Bounds)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type serveCmd struct {
	editorFlags `embed:""`

	Image   string `arg:"" optional:"" help:"Image to open: file path, http(s) URL or data URL"`
	Addr    string `help:"Listen address (random port when empty)"`
	Out     string `help:"Write every export to this file" type:"path"`
	Open    bool   `help:"Open the browser automatically when the server starts" default:"true" negatable:""`
	Once    bool   `help:"Exit after the first export" default:"false"`
	Verbose bool   `help:"Enable verbose logging" default:"false"`
}

func (cmd *serveCmd) Run() error {
	setupLogging(cmd.Verbose)

	cfg, err := cmd.load()
	if err != nil {
		return err
	}
	if cmd.Image != "" {
		cfg.Image = cmd.Image
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ctx = log.Logger.WithContext(ctx)

	cfg.OnImageReady = func() {
		log.Ctx(ctx).Info().Msg("Image ready, drag to position it")
	}
	editor, err := NewEditor(cfg, SourceDecoder{Client: defaultHTTPClient()})
	if err != nil {
		return err
	}
	session := NewSession(editor)

	app := NewWebApp(WebConfig{
		Addr: cmd.Addr,
		OnBeforeShutdown: func() {
			log.Ctx(ctx).Info().Msg("Shutting down web application...")
		},
		OnReady: func(addr string) {
			log.Ctx(ctx).Info().Msgf("Server started at %s", addr)
			if cmd.Open {
				if err := openBrowser(addr); err != nil {
					log.Error().Err(err).Msg("Failed to open browser")
				}
			}
		},
		OnExport: func(dataURL string) {
			if cmd.Out != "" {
				if err := writeDataURL(cmd.Out, dataURL); err != nil {
					log.Ctx(ctx).Error().Err(err).Msg("Failed to write export")
				} else {
					log.Ctx(ctx).Info().Str("path", cmd.Out).Msg("Avatar written")
				}
			}
			if cmd.Once {
				cancel()
			}
		},
	}, session)

	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- session.Run(ctx)
	}()

	if err := app.Run(ctx); err != nil {
		cancel()
		<-sessionDone
		return err
	}
	cancel()
	return <-sessionDone
}

type exportCmd struct {
	editorFlags `embed:""`

	Sources []string `arg:"" help:"Images or directories of images to export"`
	OffsetX float64  `help:"Drag the image horizontally by this many pixels before exporting" name:"offset-x"`
	OffsetY float64  `help:"Drag the image vertically by this many pixels before exporting" name:"offset-y"`
	Type    string   `help:"Output MIME type" default:"image/png"`
	Quality float64  `help:"Quality factor 0..1 for lossy formats" default:"0.92"`
	Out     string   `help:"Output directory" type:"path" default:"avatars"`
	JSON    bool     `help:"Print data URLs as JSON lines instead of writing files"`
	Verbose bool     `help:"Enable verbose logging" default:"false"`
}

func (cmd *exportCmd) Run() error {
	setupLogging(cmd.Verbose)

	cfg, err := cmd.load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ctx = log.Logger.WithContext(ctx)

	sources, err := listImages(cmd.Sources)
	if err != nil {
		return err
	}

	jobs := make([]AvatarJob, 0, len(sources))
	for _, source := range sources {
		jobs = append(jobs, AvatarJob{
			Source:  source,
			Scale:   cfg.Scale,
			OffsetX: cmd.OffsetX,
			OffsetY: cmd.OffsetY,
			Type:    cmd.Type,
			Quality: cmd.Quality,
		})
	}

	executor := AvatarExecutor{
		Config:  cfg,
		Decoder: SourceDecoder{Client: defaultHTTPClient()},
	}
	if !cmd.JSON {
		executor.OutputDir = cmd.Out
	}

	results, err := executor.Exec(ctx, jobs)
	if cmd.JSON {
		printJSONL(results)
	} else {
		for _, result := range results {
			log.Ctx(ctx).Info().Str("source", sourceLabel(result.Source)).Str("output", result.Output).Msg("Avatar written")
		}
	}
	return err
}

type cliArgs struct {
	Serve  serveCmd  `cmd:"" default:"withargs" help:"Open the interactive editor in the browser"`
	Export exportCmd `cmd:"" help:"Render avatars without the browser"`
}

func printJSONL[T any](data []T) {
	enc := json.NewEncoder(os.Stdout)
	for _, item := range data {
		if err := enc.Encode(item); err != nil {
			log.Error().Err(err).Msg("Failed to encode item to JSON")
			continue
		}
	}
}

func writeDataURL(path, dataURL string) error {
	_, data, err := splitDataURL(dataURL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
