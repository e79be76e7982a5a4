package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	qrSize = 256
	// quiet zone width in modules
	qrQuietModules = 4
)

var (
	qrForeground = color.RGBA{R: 0xc4, G: 0xb5, B: 0xfd, A: 0xff}
	qrBackground = color.RGBA{R: 0x08, G: 0x08, B: 0x0f, A: 0xff}
)

// RenderQR encodes content as a square PNG with a quiet zone and returns it
// base64-encoded.
func RenderQR(content string) (string, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}

	modules := code.Bounds().Dx()
	inner := qrSize * modules / (modules + 2*qrQuietModules)
	scaled, err := barcode.Scale(code, inner, inner)
	if err != nil {
		return "", fmt.Errorf("scale qr: %w", err)
	}
	offset := (qrSize - inner) / 2

	// index 0 is the background, so the border is already painted
	img := image.NewPaletted(image.Rect(0, 0, qrSize, qrSize), color.Palette{qrBackground, qrForeground})
	bounds := scaled.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// dark module → foreground
			if r, _, _, _ := scaled.At(x, y).RGBA(); r == 0 {
				img.SetColorIndex(offset+x-bounds.Min.X, offset+y-bounds.Min.Y, 1)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
