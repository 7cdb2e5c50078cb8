package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/VeenLee/dest"
	"github.com/VeenLee/dest/dataset"
	"github.com/VeenLee/dest/face"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	dataDir := flag.String("d", "../data/train", "Directory with images and .pts landmark files")
	cascadeFile := flag.String("c", "", "Pigo face cascade file, omit to use shape bounds rects")
	modelFile := flag.String("o", "tracker.bin", "Output tracker model file")
	compact := flag.Bool("compact", false, "Store leaf vectors as float16")
	seed := flag.Int64("seed", 1, "Master random seed")
	workers := flag.Int("workers", 0, "Worker pool size, 0 uses all CPUs")
	numCascades := flag.Int("cascades", 10, "Number of cascade stages")
	numTrees := flag.Int("trees", 500, "Number of trees per stage")
	treeDepth := flag.Int("depth", 5, "Maximum tree depth")
	numInit := flag.Int("init", 20, "Initializations per image")
	strategy := flag.String("strategy", "kazemi", "Sample strategy [kazemi|linear]")
	flag.Parse()

	// load dataset
	ds, err := dataset.Load(*dataDir)

	if err != nil {
		log.Fatal("Error loading dataset: ", err)
	}

	log.Printf("loaded %d images with %d landmarks, skipped %d",
		len(ds.Images), ds.NumLandmarks(), ds.Skipped)

	// detector rects when a cascade file is given, shape bounds otherwise
	var rects []dest.Rect

	if *cascadeFile != "" {
		det, err := face.NewDetector(*cascadeFile, face.DefaultDetectorParams())

		if err != nil {
			log.Fatal("Error loading face detector: ", err)
		}

		var fallbacks int
		rects, fallbacks = det.TrainingRects(ds.Images, ds.Shapes,
			face.DefaultMinCoverage)

		log.Printf("generated %d detector rects, %d fell back to shape bounds",
			len(rects)-fallbacks, fallbacks)
	}

	params := dest.DefaultParameters()
	params.NumCascades = *numCascades
	params.NumTrees = *numTrees
	params.MaxTreeDepth = *treeDepth

	td, err := dest.NewTrainingData(ds.Images, ds.Shapes, rects, params)

	if err != nil {
		log.Fatal("Error preparing training data: ", err)
	}

	opts := dest.DefaultTrainOptions()
	opts.Seed = *seed
	opts.Workers = *workers
	opts.NumInitializationsPerImage = *numInit

	if *strategy == "linear" {
		opts.Strategy = dest.StrategyLinearCombinations
	}

	opts.Progress = func(p dest.Progress) bool {
		log.Printf("stage %2d  train error %.6f  validation error %.6f",
			p.Stage, p.TrainError, p.ValidateError)
		return true
	}

	// stop cleanly at the next stage boundary on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tracker, err := dest.Train(ctx, td, opts)

	if err != nil {
		log.Fatal("Training failed: ", err)
	}

	f, err := os.Create(*modelFile)

	if err != nil {
		log.Fatal("Error creating model file: ", err)
	}

	defer f.Close()

	if *compact {
		err = tracker.SaveCompact(f)
	} else {
		err = tracker.Save(f)
	}

	if err != nil {
		log.Fatal("Error saving tracker: ", err)
	}

	log.Printf("saved %d stage tracker to %s", len(tracker.Stages), *modelFile)
}
