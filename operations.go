package main

import (
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// AvatarJob renders one avatar headlessly. OffsetX/OffsetY are applied as
// a single drag after the image is placed.
type AvatarJob struct {
	Source  string  `json:"source"`
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Type    string  `json:"type"`
	Quality float64 `json:"quality"`
}

func (j AvatarJob) String() string {
	return fmt.Sprintf("avatar(scale=%.2f,dx=%.1f,dy=%.1f,type=%s,q=%.2f)", j.Scale, j.OffsetX, j.OffsetY, j.Type, j.Quality)
}

func (j AvatarJob) ID() string {
	m := md5.New()
	_, err := m.Write([]byte(j.Source + "|" + j.String()))
	if err != nil {
		log.Error().Err(err).Msg("failed to hash job string")
		return ""
	}
	return fmt.Sprintf("%x", m.Sum(nil))
}

type AvatarResult struct {
	Source  string  `json:"source"`
	Output  string  `json:"output,omitempty"`
	DataURL string  `json:"data_url,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// reportingDecoder surfaces load failures that the editor itself swallows.
type reportingDecoder struct {
	Decoder
	failures chan<- error
}

func (d reportingDecoder) Decode(ctx context.Context, source string) (image.Image, error) {
	img, err := d.Decoder.Decode(ctx, source)
	if err != nil {
		select {
		case d.failures <- err:
		default:
		}
	}
	return img, err
}

type AvatarExecutor struct {
	Config    Config
	Decoder   Decoder
	OutputDir string
}

func (r AvatarExecutor) Exec(ctx context.Context, jobs []AvatarJob) ([]AvatarResult, error) {
	if len(jobs) == 0 {
		log.Ctx(ctx).Warn().Msg("no images to export")
		return nil, nil
	}

	if r.OutputDir != "" {
		if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", r.OutputDir, err)
		}
	}

	pooler := pool.NewWithResults[AvatarResult]().WithContext(ctx).WithMaxGoroutines(runtime.NumCPU())
	for _, job := range jobs {
		job := job
		pooler.Go(func(ctx context.Context) (AvatarResult, error) {
			result, err := r.render(ctx, job)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).
					Str("source", sourceLabel(job.Source)).
					Msg("failed to export avatar")
				return AvatarResult{}, err
			}
			return result, nil
		})
	}

	results, err := pooler.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Source < results[j].Source })
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Msg("finished with errors")
		return results, err
	}

	return results, nil
}

func (r AvatarExecutor) render(ctx context.Context, job AvatarJob) (AvatarResult, error) {
	log.Ctx(ctx).Info().Str("source", sourceLabel(job.Source)).Msg("exporting")

	cfg := r.Config
	cfg.Image = job.Source
	if job.Scale > 0 {
		cfg.Scale = job.Scale
	}

	decoder := r.Decoder
	if decoder == nil {
		decoder = SourceDecoder{}
	}
	failures := make(chan error, 1)
	editor, err := NewEditor(cfg, reportingDecoder{Decoder: decoder, failures: failures})
	if err != nil {
		return AvatarResult{}, err
	}

	loadCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		editor.Close()
	}()
	editor.Init(loadCtx)

	select {
	case res := <-editor.Loads():
		editor.ImageLoaded(res)
	case err := <-failures:
		return AvatarResult{}, fmt.Errorf("failed to load %s: %w", sourceLabel(job.Source), err)
	case <-ctx.Done():
		return AvatarResult{}, ctx.Err()
	}

	dragBy(editor, job.OffsetX, job.OffsetY)

	dataURL, err := editor.Export(job.Type, job.Quality)
	if err != nil {
		return AvatarResult{}, err
	}

	p := editor.Placement()
	result := AvatarResult{Source: job.Source, X: p.X, Y: p.Y}
	if r.OutputDir == "" {
		result.DataURL = dataURL
		return result, nil
	}

	output, err := r.write(job, dataURL)
	if err != nil {
		return AvatarResult{}, err
	}
	result.Output = output
	return result, nil
}

// dragBy replays a drag of (dx, dy) pixels through the pointer controller.
func dragBy(e *Editor, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	e.HandlePointer(PointerEvent{Kind: PointerDown})
	e.HandlePointer(PointerEvent{Kind: PointerMove})
	e.HandlePointer(PointerEvent{Kind: PointerMove, X: dx, Y: dy})
	e.HandlePointer(PointerEvent{Kind: PointerUp})
}

func (r AvatarExecutor) write(job AvatarJob, dataURL string) (string, error) {
	_, data, err := splitDataURL(dataURL)
	if err != nil {
		return "", err
	}

	base := "avatar"
	if !isRemoteSource(job.Source) {
		base = strings.TrimSuffix(filepath.Base(job.Source), filepath.Ext(job.Source))
	}
	newName := fmt.Sprintf("%s-%s.%s", base, job.ID(), lookupExportFormat(job.Type).Ext)
	outputPath := filepath.Join(r.OutputDir, newName)

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write avatar %s: %w", newName, err)
	}
	return outputPath, nil
}
