package main

// Extent is an unscaled image size in canvas pixels. Fitted sizes are
// fractional, so this is kept in floating point.
type Extent struct {
	Width  float64
	Height float64
}

// FitCover computes the size at which an image of the given natural size
// covers the content area at scale 1 while keeping its aspect ratio.
// The axis whose ratio is tighter is fitted exactly and the other one
// overflows the frame.
func FitCover(naturalWidth, naturalHeight float64, dims Dimensions) Extent {
	contentRatio := float64(dims.Height) / float64(dims.Width)
	imageRatio := naturalHeight / naturalWidth

	if contentRatio > imageRatio {
		height := float64(dims.Height)
		return Extent{
			Width:  naturalWidth * (height / naturalHeight),
			Height: height,
		}
	}

	width := float64(dims.Width)
	return Extent{
		Width:  width,
		Height: naturalHeight * (width / naturalWidth),
	}
}
