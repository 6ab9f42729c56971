package main

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Rect is a fractional rectangle in canvas coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Image rounds the rectangle to whole pixels.
func (r Rect) Image() image.Rectangle {
	x0, y0 := math.Round(r.X), math.Round(r.Y)
	x1, y1 := math.Round(r.X+r.Width), math.Round(r.Y+r.Height)
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}

// PaintRect converts a stored placement into the rectangle the image is
// painted at. Growth from scaling is centered on the stored position, then
// the near and far edges are pulled back over the content area.
func PaintRect(p Placement, scale float64, dims Dimensions) Rect {
	x, width := paintAxis(p.X, p.Width, scale, dims.Width, dims.Border)
	y, height := paintAxis(p.Y, p.Height, scale, dims.Height, dims.Border)
	return Rect{X: x, Y: y, Width: width, Height: height}
}

func paintAxis(position, size, scale float64, content, border int) (float64, float64) {
	scaled := size * scale
	position -= (scaled - size) / 2

	// near edge
	position = math.Min(position, float64(border))

	// far edge
	if fromFar := scaled + (position - float64(border)); fromFar <= float64(content) {
		position += float64(content) - fromFar
	}
	return position, scaled
}

// PaintPreview clears the surface, paints the four border bands and then
// the image, both with destination-over compositing.
func PaintPreview(dst *image.RGBA, dims Dimensions, border color.Color, p Placement, scale float64) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	paintBorder(dst, dims, border)
	if p.Ready() {
		paintImage(dst, p.Resource, PaintRect(p, scale, dims), draw.ApproxBiLinear)
	}
}

// RenderExport paints only the image, cropped to the content area. The
// border is not part of the result.
func RenderExport(dims Dimensions, p Placement, scale float64) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, dims.Width, dims.Height))
	if !p.Ready() {
		return dst
	}
	offset := -float64(dims.Border)
	paintImage(dst, p.Resource, PaintRect(p, scale, dims).Translate(offset, offset), draw.CatmullRom)
	return dst
}

func paintBorder(dst *image.RGBA, dims Dimensions, c color.Color) {
	size := dims.Border
	width, height := dims.Canvas.Width, dims.Canvas.Height
	fill := image.NewUniform(c)

	bands := []image.Rectangle{
		image.Rect(0, 0, width, size),                    // top
		image.Rect(0, height-size, width, height),        // bottom
		image.Rect(0, size, size, height-size),           // left
		image.Rect(width-size, size, width, height-size), // right
	}
	for _, band := range bands {
		destinationOver(dst, band, fill, image.Point{})
	}
}

func paintImage(dst *image.RGBA, src image.Image, at Rect, scaler draw.Scaler) {
	layer := image.NewRGBA(dst.Bounds())
	scaler.Scale(layer, at.Image(), src, src.Bounds(), draw.Src, nil)
	destinationOver(dst, dst.Bounds(), layer, dst.Bounds().Min)
}

// destinationOver composites src underneath the existing content of dst
// within r.
func destinationOver(dst *image.RGBA, r image.Rectangle, src image.Image, sp image.Point) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	under := image.NewRGBA(r)
	draw.Draw(under, r, src, sp, draw.Src)
	draw.Draw(under, r, dst, r.Min, draw.Over)
	draw.Draw(dst, r, under, r.Min, draw.Src)
}
