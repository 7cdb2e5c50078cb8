package main

import (
	"flag"
	"log"

	"github.com/VeenLee/dest"
	"github.com/VeenLee/dest/dataset"
	"github.com/VeenLee/dest/face"
	"github.com/VeenLee/dest/render"
	"gocv.io/x/gocv"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	modelFile := flag.String("m", "tracker.bin", "Trained tracker model file")
	imgFile := flag.String("i", "../data/face.jpg", "Image file to run alignment on")
	cascadeFile := flag.String("c", "../data/facefinder", "Pigo face cascade file")
	outFile := flag.String("o", "out.jpg", "Output image with rendered landmarks")
	flag.Parse()

	// load tracker model
	tracker, err := dest.LoadTrackerFile(*modelFile)

	if err != nil {
		log.Fatal("Error loading tracker model: ", err)
	}

	// load image as grayscale for alignment
	img, err := dataset.LoadImageGray(*imgFile)

	if err != nil {
		log.Fatal("Error loading image: ", err)
	}

	// detect the face to obtain the initial rectangle
	det, err := face.NewDetector(*cascadeFile, face.DefaultDetectorParams())

	if err != nil {
		log.Fatal("Error loading face detector: ", err)
	}

	dets := det.Detect(img)

	if len(dets) == 0 {
		log.Fatal("No face detected in ", *imgFile)
	}

	shape := tracker.Predict(img, dets[0])

	log.Printf("aligned %d landmarks", len(shape))

	// render result on the color image
	out := gocv.IMRead(*imgFile, gocv.IMReadColor)

	if out.Empty() {
		log.Fatal("Error reading image from: ", *imgFile)
	}

	defer out.Close()

	render.Rect(&out, dets[0], render.Blue, 2)
	render.Landmarks(&out, shape, render.Green, 2)

	if ok := gocv.IMWrite(*outFile, out); !ok {
		log.Fatal("Error writing output image to: ", *outFile)
	}

	log.Println("wrote", *outFile)
}
