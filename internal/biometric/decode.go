// Package biometric turns camera captures into comparable feature vectors
// and resolves them against enrolled identities.
package biometric

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxPayloadBytes caps the size of an encoded capture.
const MaxPayloadBytes = 10 << 20

// Frame is a decoded capture in RGBA channel order.
type Frame struct {
	Image  *image.RGBA
	Format string // jpeg, png, gif, bmp or webp
	Raw    []byte // encoded bytes as received
}

// Bounds returns the pixel bounds of the frame.
func (f *Frame) Bounds() image.Rectangle {
	return f.Image.Bounds()
}

// NewFrame wraps an already decoded image.
func NewFrame(img image.Image) *Frame {
	return &Frame{Image: toRGBA(img)}
}

// Decode parses a "<prefix>,<base64 data>" payload such as a browser data URI.
// Only the part after the first comma is decoded.
func Decode(payload string) (*Frame, error) {
	if len(payload) > MaxPayloadBytes {
		return nil, &DecodeError{Reason: "payload too large"}
	}

	_, data, ok := strings.Cut(payload, ",")
	if !ok {
		return nil, &DecodeError{Reason: "missing data URI delimiter"}
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, &DecodeError{Reason: "empty image data"}
	}

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64", Err: err}
	}

	return DecodeBytes(raw)
}

// DecodeBytes decodes an encoded image file.
func DecodeBytes(raw []byte) (*Frame, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Reason: "unsupported or corrupt image", Err: err}
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Reason: "empty image"}
	}

	return &Frame{Image: toRGBA(img), Format: format, Raw: raw}, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
