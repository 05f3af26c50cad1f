package detect

import (
	"fmt"
	"image"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/model"

	"gocv.io/x/gocv"
)

// Detection is one located object or face in source-image pixel coordinates
type Detection struct {
	ClassName  string
	Confidence float64
	Box        image.Rectangle
}

// Options holds per-invocation detection parameters
type Options struct {
	// Confidence is the minimum score a candidate must reach (DNN and YOLO).
	Confidence float64
	// NMSThreshold is the IoU above which same-class candidates are suppressed.
	NMSThreshold float64
	// ScaleFactor and MinNeighbors tune the Haar cascade sweep.
	ScaleFactor  float64
	MinNeighbors int
}

// DefaultOptions returns the standard detection parameters
func DefaultOptions() Options {
	return Options{
		Confidence:   0.5,
		NMSThreshold: 0.4,
		ScaleFactor:  1.1,
		MinNeighbors: 5,
	}
}

// Detector is the single capability interface every detection method
// implements. Implementations are safe for concurrent use after construction;
// nothing mutates the loaded model.
type Detector interface {
	Detect(img gocv.Mat, opts Options) ([]Detection, error)
	// ModelPaths reports the artifact paths actually loaded, keyed by role.
	ModelPaths() map[string]string
	Close() error
}

// New constructs the detector for a kind from its resolved descriptor. The
// kind set is closed; dispatch is a tagged switch rather than open-ended
// polymorphism.
func New(kind model.Kind, desc *model.Descriptor) (Detector, error) {
	switch kind {
	case model.HaarCascade:
		return newHaarDetector(desc)
	case model.DnnFace:
		return newDNNFaceDetector(desc)
	case model.YoloObject:
		return newYoloDetector(desc)
	default:
		return nil, apperrors.NewInternalError(fmt.Sprintf("unsupported detector kind: %s", kind), nil)
	}
}

// requireComplete maps an incomplete descriptor to a model_unavailable error
// naming the missing roles and where each artifact was expected.
func requireComplete(desc *model.Descriptor) error {
	if desc.Complete() {
		return nil
	}
	return apperrors.NewModelUnavailableError(
		fmt.Sprintf("model artifacts missing for %s", desc.Kind),
		desc.Missing, desc.Expected)
}

// clampRect constrains a rectangle to image bounds, guaranteeing
// 0 <= x, y and x+width <= imgWidth, y+height <= imgHeight.
func clampRect(r image.Rectangle, width, height int) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, width, height))
}

// guard converts an OpenCV panic (native exceptions surface as Go panics)
// into a model_load error so a corrupt artifact cannot crash the invocation.
func guard(operation string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewModelLoadError(
				fmt.Sprintf("%s failed", operation), fmt.Errorf("%v", r))
		}
	}()
	fn()
	return nil
}
