// Command generate-rects runs a face detector over a landmark dataset
// and writes one training rectangle per image, falling back to
// detector-style shape bounds when no detection covers enough
// landmarks.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/VeenLee/dest"
	"github.com/VeenLee/dest/dataset"
	"github.com/VeenLee/dest/face"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	dataDir := flag.String("d", "../data/train", "Directory with images and .pts landmark files")
	cascadeFile := flag.String("c", "../data/facefinder", "Pigo face cascade file")
	outFile := flag.String("o", "rects.csv", "Output rectangle file")
	minCoverage := flag.Float64("coverage", face.DefaultMinCoverage,
		"Minimum fraction of landmarks a detection must cover")
	flag.Parse()

	ds, err := dataset.Load(*dataDir)

	if err != nil {
		log.Fatal("Error loading dataset: ", err)
	}

	det, err := face.NewDetector(*cascadeFile, face.DefaultDetectorParams())

	if err != nil {
		log.Fatal("Error loading face detector: ", err)
	}

	rects, fallbacks := det.TrainingRects(ds.Images, ds.Shapes,
		float32(*minCoverage))

	f, err := os.Create(*outFile)

	if err != nil {
		log.Fatal("Error creating output file: ", err)
	}

	defer f.Close()

	w := csv.NewWriter(f)

	for i, r := range rects {
		min, max := r.Shape().Bounds()

		record := []string{
			filepath.Base(ds.Names[i]),
			fmt.Sprintf("%.1f", min.X),
			fmt.Sprintf("%.1f", min.Y),
			fmt.Sprintf("%.1f", max.X-min.X),
			fmt.Sprintf("%.1f", max.Y-min.Y),
		}

		if err := w.Write(record); err != nil {
			log.Fatal("Error writing rect: ", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		log.Fatal("Error writing output file: ", err)
	}

	log.Printf("wrote %d rects to %s, %d fell back to shape bounds",
		len(rects), *outFile, fallbacks)

	// report how well the generated rects align with the ground truth
	var meanOverlap float32

	for i, r := range rects {
		meanOverlap += dest.ShapeBounds(ds.Shapes[i]).OverlapRatio(r)
	}

	log.Printf("mean shape bounds overlap %.2f", meanOverlap/float32(len(rects)))
}
