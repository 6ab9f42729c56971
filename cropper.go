package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"
)

const defaultJPEGQuality = 92

// exportFormat maps a MIME type to the imaging encoder. Unknown types fall
// back to PNG.
type exportFormat struct {
	MimeType string
	Format   imaging.Format
	Ext      string
}

var exportFormats = map[string]exportFormat{
	"image/png":  {MimeType: "image/png", Format: imaging.PNG, Ext: "png"},
	"image/jpeg": {MimeType: "image/jpeg", Format: imaging.JPEG, Ext: "jpg"},
	"image/gif":  {MimeType: "image/gif", Format: imaging.GIF, Ext: "gif"},
	"image/bmp":  {MimeType: "image/bmp", Format: imaging.BMP, Ext: "bmp"},
	"image/tiff": {MimeType: "image/tiff", Format: imaging.TIFF, Ext: "tiff"},
}

func lookupExportFormat(mimeType string) exportFormat {
	if f, ok := exportFormats[strings.ToLower(strings.TrimSpace(mimeType))]; ok {
		return f
	}
	return exportFormats["image/png"]
}

// jpegQuality converts a 0..1 quality factor into the encoder's 1..100
// scale; 0 is the lowest quality. Values outside 0..1 use the default.
func jpegQuality(quality float64) int {
	if quality < 0 || quality > 1 || math.IsNaN(quality) {
		return defaultJPEGQuality
	}
	return max(1, int(math.Round(quality*100)))
}

// EncodeDataURL encodes img and returns it as a base64 data URL.
func EncodeDataURL(img image.Image, mimeType string, quality float64) (string, error) {
	format := lookupExportFormat(mimeType)

	var b bytes.Buffer
	if err := imaging.Encode(&b, img, format.Format, imaging.JPEGQuality(jpegQuality(quality))); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", format.MimeType, err)
	}

	return "data:" + format.MimeType + ";base64," + base64.StdEncoding.EncodeToString(b.Bytes()), nil
}

// splitDataURL returns the MIME type and decoded payload of a base64 data
// URL.
func splitDataURL(dataURL string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(dataURL), ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}

	mimeType, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if !strings.HasSuffix(header, ";base64") {
		data, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("failed to unescape data URL payload: %w", err)
		}
		return mimeType, []byte(data), nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	return mimeType, data, nil
}
