package dataset

import (
	"image"

	"github.com/VeenLee/dest"
	"github.com/disintegration/imaging"
)

// Mirror augments the dataset with a horizontally flipped copy of the
// image and shape.  pairs lists indices of symmetric landmarks that
// swap roles under the flip, for example left and right eye corners;
// landmarks not listed keep their index.  Doubling the dataset this
// way is a standard augmentation for face alignment training
func Mirror(img *dest.Image, shape dest.Shape, pairs [][2]int) (*dest.Image, dest.Shape, error) {

	flipped := imaging.FlipH(ToGray(img))

	// imaging returns NRGBA, collapse back to a single gray channel
	gray := image.NewGray(flipped.Bounds())

	for y := 0; y < flipped.Bounds().Dy(); y++ {
		for x := 0; x < flipped.Bounds().Dx(); x++ {
			gray.Pix[y*gray.Stride+x] = flipped.Pix[y*flipped.Stride+4*x]
		}
	}

	out, err := FromGray(gray)

	if err != nil {
		return nil, nil, err
	}

	mirrored := shape.Clone()
	width := float32(img.Cols - 1)

	for i := range mirrored {
		mirrored[i].X = width - mirrored[i].X
	}

	for _, p := range pairs {
		mirrored[p[0]], mirrored[p[1]] = mirrored[p[1]], mirrored[p[0]]
	}

	return out, mirrored, nil
}
