package detect

import (
	"image"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/model"

	"gocv.io/x/gocv"
)

// dnnInputSize and dnnMean follow the training normalization of the
// res10 300x300 SSD face model.
var (
	dnnInputSize = image.Pt(300, 300)
	dnnMean      = gocv.NewScalar(104.0, 177.0, 123.0, 0)
)

type dnnFaceDetector struct {
	net   gocv.Net
	paths map[string]string
}

func newDNNFaceDetector(desc *model.Descriptor) (Detector, error) {
	if err := requireComplete(desc); err != nil {
		return nil, err
	}

	var net gocv.Net
	err := guard("loading face network", func() {
		net = gocv.ReadNetFromCaffe(desc.Paths[model.RoleConfig], desc.Paths[model.RoleWeights])
	})
	if err != nil {
		return nil, err
	}
	if net.Empty() {
		return nil, apperrors.NewModelLoadError("face network is empty after load", nil)
	}

	return &dnnFaceDetector{net: net, paths: desc.Paths}, nil
}

func (d *dnnFaceDetector) Detect(img gocv.Mat, opts Options) ([]Detection, error) {
	width, height := img.Cols(), img.Rows()

	var detections []Detection
	err := guard("face network forward pass", func() {
		blob := gocv.BlobFromImage(img, 1.0, dnnInputSize, dnnMean, false, false)
		defer blob.Close()

		d.net.SetInput(blob, "")
		prob := d.net.Forward("")
		defer prob.Close()

		// Output is [1,1,N,7]: image id, class id, confidence, then the four
		// box corners normalized to [0,1].
		rows := prob.Total() / 7
		out := prob.Reshape(1, rows)
		defer out.Close()

		for r := 0; r < rows; r++ {
			confidence := float64(out.GetFloatAt(r, 2))
			if confidence < opts.Confidence {
				continue
			}

			x1 := int(out.GetFloatAt(r, 3) * float32(width))
			y1 := int(out.GetFloatAt(r, 4) * float32(height))
			x2 := int(out.GetFloatAt(r, 5) * float32(width))
			y2 := int(out.GetFloatAt(r, 6) * float32(height))

			box := clampRect(image.Rect(x1, y1, x2, y2), width, height)
			if box.Empty() {
				continue
			}

			detections = append(detections, Detection{
				ClassName:  "face",
				Confidence: confidence,
				Box:        box,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return detections, nil
}

func (d *dnnFaceDetector) ModelPaths() map[string]string {
	return d.paths
}

func (d *dnnFaceDetector) Close() error {
	return d.net.Close()
}
