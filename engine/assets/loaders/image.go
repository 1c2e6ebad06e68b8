package loaders

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/vesta-engine/vesta/engine/core"
	"github.com/vesta-engine/vesta/engine/resources"
)

/**
 * @brief Decodes a compressed image payload into tightly packed RGBA pixels.
 *
 * PNG, JPEG, GIF, BMP and TIFF payloads are recognized. When flipY is set
 * the pixel rows are reversed so the origin moves to the bottom left.
 * @param data The raw bytes of an image file.
 * @param flipY Whether to flip the image vertically while decoding.
 * @returns A pointer to the decoded image data, or the decode error.
 */
func DecodeImage(data []byte, flipY bool) (*resources.ImageData, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	if flipY {
		flipRows(rgba)
	}

	core.LogDebug("decoded %s image %dx%d", format, bounds.Dx(), bounds.Dy())

	return &resources.ImageData{
		ChannelCount: 4,
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		Pixels:       rgba.Pix,
	}, nil
}

// NewRGBA images have a stride of exactly four bytes per pixel, so rows can
// be swapped in place.
func flipRows(img *image.RGBA) {
	rowSize := img.Stride
	tmp := make([]byte, rowSize)
	for top, bottom := 0, img.Bounds().Dy()-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := img.Pix[top*rowSize : top*rowSize+rowSize]
		b := img.Pix[bottom*rowSize : bottom*rowSize+rowSize]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
