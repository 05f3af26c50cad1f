package service

import (
	"context"
	"time"

	"go-vision-tools/internal/detect"
	"go-vision-tools/internal/model"
	"go-vision-tools/internal/observer"
	"go-vision-tools/pkg/models"

	"gocv.io/x/gocv"
)

// DetectFaces locates faces using either the Haar cascade (default) or the
// Caffe SSD network, selected by the request's method field.
func (s *visionService) DetectFaces(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	kind := model.HaarCascade
	if req.Method == "dnn" {
		kind = model.DnnFace
	}
	return s.runDetection(ctx, req, "detect_faces", kind)
}

// DetectObjects runs the YOLO network over the image
func (s *visionService) DetectObjects(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	return s.runDetection(ctx, req, "detect_objects", model.YoloObject)
}

func (s *visionService) runDetection(ctx context.Context, req models.ToolRequest, operation string, kind model.Kind) (resp *models.ToolResponse, err error) {
	if err := s.validator.ValidatePath(req.Path); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDetection(req); err != nil {
		return nil, err
	}

	start := time.Now()
	s.publish(ctx, observer.InvocationStarted, operation, req.Path, start, nil)
	defer func() {
		s.finishEvent(ctx, operation, req.Path, start, err)
	}()

	detector, err := s.detectors.Get(kind)
	if err != nil {
		return nil, err
	}

	img, err := s.resolver.ResolveImage(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	detections, err := detector.Detect(img.Mat, detectOptions(req))
	if err != nil {
		return nil, err
	}

	var out gocv.Mat
	if req.DrawBoxes == nil || *req.DrawBoxes {
		out = detect.Annotate(img.Mat, detections)
	} else {
		out = img.Mat.Clone()
	}
	defer out.Close()

	result, warnings, err := s.encoder.FinalizeImage(ctx, out, req.Path, operation, req.OutputFormat, req.OutputQuality)
	if err != nil {
		return nil, err
	}

	result.Metrics["detection_count"] = len(detections)
	result.Metrics["width"] = img.Width()
	result.Metrics["height"] = img.Height()
	if req.Method != "" {
		result.Metrics["method"] = req.Method
	}

	response := s.response(operation, req.Path, start, result, warnings)
	response.Detections = convertDetections(detections)
	response.ModelPaths = detector.ModelPaths()
	return response, nil
}

// detectOptions overlays request knobs onto the defaults; zero values keep
// the default.
func detectOptions(req models.ToolRequest) detect.Options {
	opts := detect.DefaultOptions()
	if req.Confidence > 0 {
		opts.Confidence = req.Confidence
	}
	if req.NMSThreshold > 0 {
		opts.NMSThreshold = req.NMSThreshold
	}
	if req.ScaleFactor > 0 {
		opts.ScaleFactor = req.ScaleFactor
	}
	if req.MinNeighbors > 0 {
		opts.MinNeighbors = req.MinNeighbors
	}
	return opts
}

func convertDetections(detections []detect.Detection) []models.Detection {
	out := make([]models.Detection, len(detections))
	for i, d := range detections {
		out[i] = models.Detection{
			ClassName:  d.ClassName,
			Confidence: d.Confidence,
			Box: models.Box{
				X:      d.Box.Min.X,
				Y:      d.Box.Min.Y,
				Width:  d.Box.Dx(),
				Height: d.Box.Dy(),
			},
		}
	}
	return out
}
