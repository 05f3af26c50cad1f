package detect

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strings"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/model"

	"gocv.io/x/gocv"
)

// yoloInputSize is the fixed network input; box coordinates come back
// normalized and are projected onto the source image, not the blob.
var yoloInputSize = image.Pt(416, 416)

type yoloDetector struct {
	net         gocv.Net
	classNames  []string
	outputNames []string
	paths       map[string]string
}

func newYoloDetector(desc *model.Descriptor) (Detector, error) {
	if err := requireComplete(desc); err != nil {
		return nil, err
	}

	classNames, err := readClassNames(desc.Paths[model.RoleClassNames])
	if err != nil {
		return nil, apperrors.NewModelLoadError(
			fmt.Sprintf("failed to read class names from %s", desc.Paths[model.RoleClassNames]), err)
	}

	var net gocv.Net
	if err := guard("loading YOLO network", func() {
		net = gocv.ReadNet(desc.Paths[model.RoleWeights], desc.Paths[model.RoleConfig])
	}); err != nil {
		return nil, err
	}
	if net.Empty() {
		return nil, apperrors.NewModelLoadError("YOLO network is empty after load", nil)
	}

	return &yoloDetector{
		net:         net,
		classNames:  classNames,
		outputNames: outputLayerNames(&net),
		paths:       desc.Paths,
	}, nil
}

func (d *yoloDetector) Detect(img gocv.Mat, opts Options) ([]Detection, error) {
	width, height := img.Cols(), img.Rows()

	var rows [][]float32
	err := guard("YOLO forward pass", func() {
		blob := gocv.BlobFromImage(img, 1.0/255.0, yoloInputSize,
			gocv.NewScalar(0, 0, 0, 0), true, false)
		defer blob.Close()

		d.net.SetInput(blob, "")
		outputs := d.net.ForwardLayers(d.outputNames)
		defer func() {
			for i := range outputs {
				outputs[i].Close()
			}
		}()

		for _, out := range outputs {
			for r := 0; r < out.Rows(); r++ {
				row := make([]float32, out.Cols())
				for c := 0; c < out.Cols(); c++ {
					row[c] = out.GetFloatAt(r, c)
				}
				rows = append(rows, row)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	candidates := decodeCandidates(rows, width, height, opts.Confidence, d.classNames)
	return SuppressOverlapping(candidates, opts.NMSThreshold), nil
}

func (d *yoloDetector) ModelPaths() map[string]string {
	return d.paths
}

func (d *yoloDetector) Close() error {
	return d.net.Close()
}

// decodeCandidates converts raw network output rows into pixel-space
// detections. Each row is [center-x, center-y, width, height, objectness,
// class scores...] with coordinates normalized to [0,1]. The class with the
// maximum score wins; candidates below the confidence threshold are dropped.
func decodeCandidates(rows [][]float32, imgWidth, imgHeight int, confThreshold float64, classNames []string) []Detection {
	var detections []Detection

	for _, row := range rows {
		if len(row) < 6 {
			continue
		}

		classID := 0
		best := row[5]
		for c := 6; c < len(row); c++ {
			if row[c] > best {
				best = row[c]
				classID = c - 5
			}
		}
		confidence := float64(best)
		if confidence < confThreshold {
			continue
		}

		centerX := float64(row[0]) * float64(imgWidth)
		centerY := float64(row[1]) * float64(imgHeight)
		boxWidth := float64(row[2]) * float64(imgWidth)
		boxHeight := float64(row[3]) * float64(imgHeight)

		x := int(centerX - boxWidth/2)
		y := int(centerY - boxHeight/2)
		box := clampRect(image.Rect(x, y, x+int(boxWidth), y+int(boxHeight)), imgWidth, imgHeight)
		if box.Empty() {
			continue
		}

		detections = append(detections, Detection{
			ClassName:  className(classNames, classID),
			Confidence: confidence,
			Box:        box,
		})
	}
	return detections
}

func className(names []string, id int) string {
	if id >= 0 && id < len(names) {
		return names[id]
	}
	return fmt.Sprintf("class_%d", id)
}

func readClassNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	return names, scanner.Err()
}

// outputLayerNames returns the unconnected output layers the forward pass
// must be driven across.
func outputLayerNames(net *gocv.Net) []string {
	var names []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()
		layer.Close()
		if name != "_input" {
			names = append(names, name)
		}
	}
	return names
}
