package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/VeenLee/dest"
)

// ParsePTS reads landmarks in the ibug .pts annotation format:
//
//	version: 1
//	n_points: 68
//	{
//	236.0 209.5
//	...
//	}
func ParsePTS(r io.Reader) (dest.Shape, error) {

	scanner := bufio.NewScanner(r)

	numPoints := -1
	inBody := false

	var shape dest.Shape

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "version:"):
			// ignored

		case strings.HasPrefix(line, "n_points:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "n_points:"))

			n, err := strconv.Atoi(v)

			if err != nil {
				return nil, fmt.Errorf("invalid n_points %q: %w", v, err)
			}

			numPoints = n

		case line == "{":
			inBody = true

		case line == "}":
			inBody = false

		case inBody:
			fields := strings.Fields(line)

			if len(fields) != 2 {
				return nil, fmt.Errorf("invalid landmark line %q", line)
			}

			x, err := strconv.ParseFloat(fields[0], 32)

			if err != nil {
				return nil, fmt.Errorf("invalid x coordinate %q: %w", fields[0], err)
			}

			y, err := strconv.ParseFloat(fields[1], 32)

			if err != nil {
				return nil, fmt.Errorf("invalid y coordinate %q: %w", fields[1], err)
			}

			shape = append(shape, dest.Point{X: float32(x), Y: float32(y)})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading landmark file: %w", err)
	}

	if numPoints >= 0 && len(shape) != numPoints {
		return nil, fmt.Errorf("landmark count %d does not match n_points %d",
			len(shape), numPoints)
	}

	if len(shape) == 0 {
		return nil, fmt.Errorf("no landmarks found")
	}

	return shape, nil
}

// LoadPTS reads a .pts landmark file from disk
func LoadPTS(path string) (dest.Shape, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	return ParsePTS(f)
}
