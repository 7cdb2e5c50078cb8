package render

import "image/color"

var (
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	Red    = color.RGBA{R: 255, G: 56, B: 56, A: 255}
	Green  = color.RGBA{R: 72, G: 249, B: 10, A: 255}
	Blue   = color.RGBA{R: 51, G: 153, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 178, B: 29, A: 255}
	Gray   = color.RGBA{R: 192, G: 192, B: 192, A: 255}
)
