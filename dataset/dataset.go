// Package dataset loads landmark training data from disk: image files
// paired with ibug style .pts landmark annotation files.
package dataset

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/VeenLee/dest"
	"gocv.io/x/gocv"
)

// image file extensions considered when scanning a dataset directory
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// Dataset holds the parallel arrays a training run consumes: one
// grayscale image and one ground-truth shape per entry
type Dataset struct {
	Images []*dest.Image
	Shapes []dest.Shape
	// Names are the image file paths, kept for diagnostics
	Names []string
	// Skipped counts entries excluded due to unusable image or
	// annotation data
	Skipped int
}

// Load scans a directory for image files with sibling .pts landmark
// files and loads them.  Entries with unreadable images or malformed
// annotations are skipped and counted rather than aborting the whole
// load, the caller decides whether the skip count is acceptable
func Load(dir string) (*Dataset, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, fmt.Errorf("error reading dataset directory: %w", err)
	}

	var files []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}

	// fixed load order keeps downstream training reproducible
	sort.Strings(files)

	ds := &Dataset{}

	for _, name := range files {
		imgPath := filepath.Join(dir, name)
		ptsPath := strings.TrimSuffix(imgPath, filepath.Ext(imgPath)) + ".pts"

		shape, err := LoadPTS(ptsPath)

		if err != nil {
			ds.Skipped++
			continue
		}

		img, err := LoadImageGray(imgPath)

		if err != nil {
			ds.Skipped++
			continue
		}

		ds.Images = append(ds.Images, img)
		ds.Shapes = append(ds.Shapes, shape)
		ds.Names = append(ds.Names, imgPath)
	}

	if len(ds.Images) == 0 {
		return nil, fmt.Errorf("no usable images in %s (%d skipped)",
			dir, ds.Skipped)
	}

	if err := ds.validate(); err != nil {
		return nil, err
	}

	return ds, nil
}

// validate checks that all shapes share one landmark count
func (ds *Dataset) validate() error {

	numLandmarks := len(ds.Shapes[0])

	for i, s := range ds.Shapes {
		if len(s) != numLandmarks {
			return fmt.Errorf("%s has %d landmarks, want %d",
				ds.Names[i], len(s), numLandmarks)
		}
	}

	return nil
}

// NumLandmarks returns the landmark count shared by all shapes
func (ds *Dataset) NumLandmarks() int {

	if len(ds.Shapes) == 0 {
		return 0
	}

	return len(ds.Shapes[0])
}

// LoadImageGray reads an image file as grayscale using OpenCV
func LoadImageGray(path string) (*dest.Image, error) {

	mat := gocv.IMRead(path, gocv.IMReadGrayScale)

	if mat.Empty() {
		return nil, fmt.Errorf("error reading image from: %s", path)
	}

	defer mat.Close()

	data, err := mat.DataPtrUint8()

	if err != nil {
		return nil, fmt.Errorf("error accessing image data: %w", err)
	}

	// copy out of the Mat buffer before it is released
	pixels := make([]uint8, len(data))
	copy(pixels, data)

	return dest.NewImage(pixels, mat.Rows(), mat.Cols())
}

// FromGray converts a standard library grayscale image
func FromGray(img *image.Gray) (*dest.Image, error) {

	bounds := img.Bounds()
	rows := bounds.Dy()
	cols := bounds.Dx()

	pixels := make([]uint8, rows*cols)

	for y := 0; y < rows; y++ {
		copy(pixels[y*cols:(y+1)*cols],
			img.Pix[y*img.Stride:y*img.Stride+cols])
	}

	return dest.NewImage(pixels, rows, cols)
}

// ToGray converts back into a standard library grayscale image
func ToGray(img *dest.Image) *image.Gray {

	out := image.NewGray(image.Rect(0, 0, img.Cols, img.Rows))

	for y := 0; y < img.Rows; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+img.Cols],
			img.Pixels[y*img.Cols:(y+1)*img.Cols])
	}

	return out
}
