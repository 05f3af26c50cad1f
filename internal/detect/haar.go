package detect

import (
	"fmt"
	"image"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/model"

	"gocv.io/x/gocv"
)

// haarConfidence is the fixed sentinel reported for cascade detections; the
// classifier itself produces no score.
const haarConfidence = 1.0

type haarDetector struct {
	classifier gocv.CascadeClassifier
	paths      map[string]string
}

func newHaarDetector(desc *model.Descriptor) (Detector, error) {
	if err := requireComplete(desc); err != nil {
		return nil, err
	}

	cascadePath := desc.Paths[model.RoleCascade]
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, apperrors.NewModelLoadError(
			fmt.Sprintf("failed to load cascade from %s", cascadePath), nil)
	}

	return &haarDetector{
		classifier: classifier,
		paths:      desc.Paths,
	}, nil
}

func (d *haarDetector) Detect(img gocv.Mat, opts Options) ([]Detection, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	var rects []image.Rectangle
	err := guard("cascade detection", func() {
		rects = d.classifier.DetectMultiScaleWithParams(
			gray, opts.ScaleFactor, opts.MinNeighbors, 0,
			image.Pt(30, 30), image.Pt(0, 0))
	})
	if err != nil {
		return nil, err
	}

	width, height := img.Cols(), img.Rows()
	detections := make([]Detection, 0, len(rects))
	for _, r := range rects {
		detections = append(detections, Detection{
			ClassName:  "face",
			Confidence: haarConfidence,
			Box:        clampRect(r, width, height),
		})
	}
	return detections, nil
}

func (d *haarDetector) ModelPaths() map[string]string {
	return d.paths
}

func (d *haarDetector) Close() error {
	return d.classifier.Close()
}
