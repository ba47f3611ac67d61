package ai

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// preparedImage is an upload decoded once and shrunk for the model.
type preparedImage struct {
	Source    image.Image // original decoded image
	Width     int         // original width in pixels
	Height    int         // original height in pixels
	Thumbnail []byte      // JPEG sent to the model
}

// prepareImage decodes data and fits it within maxSize while keeping aspect
// ratio, re-encoding as JPEG. Model coordinates are normalized, so they are
// later scaled against the original size rather than the thumbnail's.
func prepareImage(data []byte, maxSize int) (*preparedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	thumb := img
	if bounds.Dx() > maxSize || bounds.Dy() > maxSize {
		thumb = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &preparedImage{
		Source:    img,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Thumbnail: buf.Bytes(),
	}, nil
}

// ResizeImage resizes an image to fit within maxSize (width or height) while keeping aspect ratio.
func ResizeImage(data []byte, maxSize int) ([]byte, error) {
	img, err := prepareImage(data, maxSize)
	if err != nil {
		return nil, err
	}
	return img.Thumbnail, nil
}
