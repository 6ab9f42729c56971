package main

import "image"

// Dimensions describes the editor surface. Width and Height are the crop
// content area; Canvas is the full surface with Border added on every side.
type Dimensions struct {
	Width  int
	Height int
	Border int
	Canvas CanvasSize
}

type CanvasSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimensions derives the surface sizing from the configuration.
func (c Config) Dimensions() Dimensions {
	return Dimensions{
		Width:  c.Width,
		Height: c.Height,
		Border: c.Border,
		Canvas: CanvasSize{
			Width:  c.Width + c.Border*2,
			Height: c.Height + c.Border*2,
		},
	}
}

// ContentRect is the crop area in canvas coordinates.
func (d Dimensions) ContentRect() image.Rectangle {
	return image.Rect(d.Border, d.Border, d.Border+d.Width, d.Border+d.Height)
}

func (d Dimensions) CanvasRect() image.Rectangle {
	return image.Rect(0, 0, d.Canvas.Width, d.Canvas.Height)
}
