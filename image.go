package dest

import (
	"fmt"
)

// Image is a read-only grayscale intensity grid.
// Pixels: contains the grayscale image pixel data in row major order.
// Rows: the number of image rows.
// Cols: the number of image columns.
type Image struct {
	Pixels []uint8
	Rows   int
	Cols   int
}

// NewImage creates an image from raw grayscale pixel data.  The pixel
// slice length must equal rows times cols
func NewImage(pixels []uint8, rows, cols int) (*Image, error) {

	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", cols, rows)
	}

	if len(pixels) != rows*cols {
		return nil, fmt.Errorf("pixel data length %d does not match size %dx%d",
			len(pixels), cols, rows)
	}

	return &Image{Pixels: pixels, Rows: rows, Cols: cols}, nil
}

// At returns the intensity at the given pixel position
func (im *Image) At(x, y int) uint8 {
	return im.Pixels[y*im.Cols+x]
}

// Sample returns the bilinearly interpolated intensity at the given
// sub-pixel position.  Positions outside the image clamp to the
// border so estimates that drift off-image still read finite values
func (im *Image) Sample(x, y float32) float32 {

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > float32(im.Cols-1) {
		x = float32(im.Cols - 1)
	}
	if y > float32(im.Rows-1) {
		y = float32(im.Rows - 1)
	}

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1

	if x1 > im.Cols-1 {
		x1 = im.Cols - 1
	}
	if y1 > im.Rows-1 {
		y1 = im.Rows - 1
	}

	fx := x - float32(x0)
	fy := y - float32(y0)

	p00 := float32(im.Pixels[y0*im.Cols+x0])
	p01 := float32(im.Pixels[y0*im.Cols+x1])
	p10 := float32(im.Pixels[y1*im.Cols+x0])
	p11 := float32(im.Pixels[y1*im.Cols+x1])

	top := p00 + (p01-p00)*fx
	bottom := p10 + (p11-p10)*fx

	return top + (bottom-top)*fy
}
