// Package images implements pure transforms over stored image blobs.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	// BMP uploads show up from older scanning tools.
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"medexpense/internal/core"
)

// ThumbnailSize is the fixed edge length of derived avatar thumbnails.
const ThumbnailSize = 500

// Thumbnail derives a width x height PNG from src. The source is scaled to
// cover the target and center-cropped, so output dimensions are always exact.
// The transform is pure and deterministic per input; src is never modified.
func Thumbnail(src []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target %dx%d", core.ErrTransform, width, height)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", core.ErrTransform, err)
	}

	crop := coverRect(img.Bounds(), width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", core.ErrTransform, err)
	}
	return buf.Bytes(), nil
}

// coverRect returns the largest centered sub-rectangle of bounds that has the
// target aspect ratio.
func coverRect(bounds image.Rectangle, width, height int) image.Rectangle {
	srcW, srcH := bounds.Dx(), bounds.Dy()

	// Compare aspect ratios without division: srcW/srcH vs width/height.
	if srcW*height > width*srcH {
		// Source is wider than the target: crop the sides.
		cropW := srcH * width / height
		x0 := bounds.Min.X + (srcW-cropW)/2
		return image.Rect(x0, bounds.Min.Y, x0+cropW, bounds.Max.Y)
	}
	// Source is taller (or matching): crop top and bottom.
	cropH := srcW * height / width
	y0 := bounds.Min.Y + (srcH-cropH)/2
	return image.Rect(bounds.Min.X, y0, bounds.Max.X, y0+cropH)
}
