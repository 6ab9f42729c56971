package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var dataURLPattern = regexp.MustCompile(`(?i)^\s*data:([a-z]+/[a-z0-9.+-]+(;[a-z-]+=[a-z0-9-]+)?)?(;base64)?,[a-z0-9!$&',()*+;=\-._~:@/?%\s]*\s*$`)

func isDataURL(s string) bool {
	return dataURLPattern.MatchString(s)
}

// Decoder turns an image source reference into a decoded image.
type Decoder interface {
	Decode(ctx context.Context, source string) (image.Image, error)
}

// SourceDecoder decodes data URLs, http(s) URLs and file paths.
type SourceDecoder struct {
	Client *http.Client
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func (d SourceDecoder) Decode(ctx context.Context, source string) (image.Image, error) {
	r, err := d.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (d SourceDecoder) open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case isDataURL(source):
		_, data, err := splitDataURL(source)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil

	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		client := d.Client
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch image: %s", resp.Status)
		}
		return resp.Body, nil

	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		return f, nil
	}
}

// LoadResult is delivered when a load finishes successfully.
type LoadResult struct {
	Generation uint64
	Source     string
	Image      image.Image
}

// Loader runs image decodes in the background. Every Start supersedes the
// previous one; only the result carrying the latest generation is current.
// Start and Current must be called from the goroutine that owns the editor.
type Loader struct {
	decoder    Decoder
	results    chan LoadResult
	wg         conc.WaitGroup
	generation uint64
}

func NewLoader(decoder Decoder) *Loader {
	return &Loader{
		decoder: decoder,
		results: make(chan LoadResult, 1),
	}
}

// Start begins loading source and returns the generation tagging its result.
// Failed loads are logged and produce no result.
func (l *Loader) Start(ctx context.Context, source string) uint64 {
	l.generation++
	generation := l.generation

	l.wg.Go(func() {
		img, err := l.decoder.Decode(ctx, source)
		if err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Uint64("generation", generation).
				Str("source", sourceLabel(source)).
				Msg("image load failed")
			return
		}

		select {
		case l.results <- LoadResult{Generation: generation, Source: source, Image: img}:
		case <-ctx.Done():
		}
	})

	return generation
}

func (l *Loader) Current() uint64 {
	return l.generation
}

func (l *Loader) Results() <-chan LoadResult {
	return l.results
}

// Wait blocks until every started load has finished or given up.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// sourceLabel shortens data URLs for logging.
func sourceLabel(source string) string {
	const limit = 48
	if len(source) > limit && strings.HasPrefix(strings.TrimSpace(source), "data:") {
		return source[:limit] + "..."
	}
	return source
}
