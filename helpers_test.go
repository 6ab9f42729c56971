package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	white = color.RGBA{255, 255, 255, 255}
)

// createInMemoryImage creates a solid color image.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates red top-left, green top-right, blue
// bottom-left and white bottom-right quadrants.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = red
			case x >= width/2 && y < height/2:
				c = green
			case x < width/2 && y >= height/2:
				c = blue
			default:
				c = white
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return b.Bytes()
}

func pngDataURL(t *testing.T, img image.Image) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(encodePNG(t, img))
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, encodePNG(t, img), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func decodeDataURL(t *testing.T, dataURL string) (string, image.Image) {
	t.Helper()
	mimeType, data, err := splitDataURL(dataURL)
	if err != nil {
		t.Fatalf("splitDataURL failed: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode exported image: %v", err)
	}
	return mimeType, img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func closeColor(got, want color.RGBA, tolerance int) bool {
	diff := func(a, b uint8) bool { return math.Abs(float64(a)-float64(b)) <= float64(tolerance) }
	return diff(got.R, want.R) && diff(got.G, want.G) && diff(got.B, want.B) && diff(got.A, want.A)
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

// mapDecoder serves images by source name. Sources with a gate block until
// the gate is closed, which lets tests pick the completion order.
type mapDecoder struct {
	images map[string]image.Image
	gates  map[string]chan struct{}
}

func (d mapDecoder) Decode(ctx context.Context, source string) (image.Image, error) {
	if gate, ok := d.gates[source]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	img, ok := d.images[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	return img, nil
}

// newTestEditor returns an initialized editor that is closed when the test
// ends.
func newTestEditor(t *testing.T, cfg Config, decoder Decoder) *Editor {
	t.Helper()
	e, err := NewEditor(cfg, decoder)
	if err != nil {
		t.Fatalf("NewEditor failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		e.Close()
	})
	e.Init(ctx)
	return e
}

func receiveLoad(t *testing.T, e *Editor) LoadResult {
	t.Helper()
	select {
	case res := <-e.Loads():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for image load")
	}
	return LoadResult{}
}

// loadImage loads img into the editor and commits it.
func loadImage(t *testing.T, e *Editor, img image.Image) {
	t.Helper()
	e.Load(pngDataURL(t, img))
	if !e.ImageLoaded(receiveLoad(t, e)) {
		t.Fatal("image load was not accepted")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
