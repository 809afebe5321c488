// Package qr renders pickup tracking codes as QR images and reads them back.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	qrgen "github.com/skip2/go-qrcode"
)

const (
	// DefaultImageSize is the square pixel size of generated QR PNGs.
	DefaultImageSize = 256

	minImageSize = 64
	maxImageSize = 1024
)

// ErrNoCode is returned when no QR code can be located in the image.
var ErrNoCode = errors.New("no qr code detected in image")

// Codec encodes tracking codes to PNG and decodes uploaded scan images.
type Codec struct {
	size int
}

// NewCodec returns a codec producing images of the given pixel size.
func NewCodec(size int) *Codec {
	if size < minImageSize || size > maxImageSize {
		size = DefaultImageSize
	}
	return &Codec{size: size}
}

// Encode renders the content as a PNG QR image.
func (c *Codec) Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("content cannot be empty")
	}
	png, err := qrgen.Encode(content, qrgen.Medium, c.size)
	if err != nil {
		return nil, fmt.Errorf("encoding qr image: %w", err)
	}
	return png, nil
}

// Decode extracts the QR payload from an uploaded PNG or JPEG image.
// Returns ErrNoCode when the image holds no readable code.
func (c *Codec) Decode(imageBytes []byte) (string, error) {
	if len(imageBytes) == 0 {
		return "", ErrNoCode
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoCode, "unreadable image data")
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("preparing bitmap: %w", err)
	}

	reader := zxingqr.NewQRCodeReader()
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := reader.Decode(bmp, hints)
	if err != nil {
		return "", ErrNoCode
	}
	return result.GetText(), nil
}
