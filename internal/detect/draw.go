package detect

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var boxColor = color.RGBA{G: 255, A: 255}

// Annotate returns a copy of the image with detection boxes and labels drawn
func Annotate(img gocv.Mat, detections []Detection) gocv.Mat {
	annotated := img.Clone()
	for _, d := range detections {
		gocv.Rectangle(&annotated, d.Box, boxColor, 2)

		label := d.ClassName
		if d.Confidence < 1.0 {
			label = fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
		}
		origin := image.Pt(d.Box.Min.X, d.Box.Min.Y-6)
		if origin.Y < 12 {
			origin.Y = d.Box.Min.Y + 16
		}
		gocv.PutText(&annotated, label, origin, gocv.FontHersheySimplex, 0.5, boxColor, 1)
	}
	return annotated
}
