package dataset

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/VeenLee/dest"
	xdraw "golang.org/x/image/draw"
)

// LoadImageGrayGo reads an image file using the pure Go codecs, for
// builds without OpenCV.  Images larger than maxDim on either side
// are scaled down proportionally; pass zero to keep the original
// size.  Shapes annotated against the original image must be scaled
// by the returned factor
func LoadImageGrayGo(path string, maxDim int) (*dest.Image, float32, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, 0, fmt.Errorf("error opening image: %w", err)
	}

	defer f.Close()

	src, _, err := image.Decode(f)

	if err != nil {
		return nil, 0, fmt.Errorf("error decoding image: %w", err)
	}

	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	scale := float32(1)

	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w > h {
			scale = float32(maxDim) / float32(w)
		} else {
			scale = float32(maxDim) / float32(h)
		}

		w = int(float32(w) * scale)
		h = int(float32(h) * scale)
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(gray, gray.Bounds(), src, bounds, xdraw.Src, nil)

	img, err := FromGray(gray)

	if err != nil {
		return nil, 0, err
	}

	return img, scale, nil
}

// ScaleShape multiplies every landmark by the given factor, used to
// keep annotations aligned with images resized at load time
func ScaleShape(shape dest.Shape, scale float32) dest.Shape {

	out := shape.Clone()

	for i := range out {
		out[i].X *= scale
		out[i].Y *= scale
	}

	return out
}
