// Package imaging decodes camera captures and normalizes them for the face service.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	// Registered decoders for uploads that are not JPEG.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 90

// ErrNoPayload is returned for data URLs without a comma separated payload.
var ErrNoPayload = errors.New("data URL has no payload")

// DecodeDataURL splits a "data:image/...;base64,<payload>" string on its first
// comma and base64-decodes the payload. Unpadded payloads are accepted.
func DecodeDataURL(s string) ([]byte, error) {
	_, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, ErrNoPayload
	}
	payload = strings.TrimSpace(payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("invalid base64 payload: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, ErrNoPayload
	}
	return data, nil
}

// Normalize decodes an image in any registered format and re-encodes it as an
// RGB JPEG whose longest edge is at most maxSize. maxSize <= 0 keeps the size.
func Normalize(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, errors.New("image has no pixels")
	}

	newWidth, newHeight := fit(width, height, maxSize)

	// Drawing onto RGBA flattens palette, gray and alpha images into RGB.
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	if newWidth == width && newHeight == height {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales width and height so the longest edge is maxSize, keeping aspect ratio.
func fit(width, height, maxSize int) (int, int) {
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return width, height
	}
	if width > height {
		return maxSize, max(1, int(float64(height)*float64(maxSize)/float64(width)))
	}
	return max(1, int(float64(width)*float64(maxSize)/float64(height))), maxSize
}

// PrepareDataURL decodes a data URL and normalizes the image it carries.
func PrepareDataURL(s string, maxSize int) ([]byte, error) {
	data, err := DecodeDataURL(s)
	if err != nil {
		return nil, err
	}
	return Normalize(data, maxSize)
}
