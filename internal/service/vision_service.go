package service

import (
	"context"
	"time"

	"go-vision-tools/internal/detect"
	"go-vision-tools/internal/encode"
	"go-vision-tools/internal/media"
	"go-vision-tools/internal/observer"
	"go-vision-tools/internal/transform"
	"go-vision-tools/internal/video"
	"go-vision-tools/pkg/models"
	"go-vision-tools/pkg/validation"

	"gocv.io/x/gocv"
)

// VisionService is the facade every tool invocation goes through: it strings
// media resolution, optional detection and dual-output encoding together and
// maps failures to structured errors.
type VisionService interface {
	Resize(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	Crop(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	Flip(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	Rotate(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	ConvertColor(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	Edges(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	Features(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	Contours(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)

	DetectFaces(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	DetectObjects(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)

	VideoInfo(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	ExtractFrames(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	DetectMotion(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
	TrackObject(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error)
}

type visionService struct {
	resolver  media.Resolver
	detectors *detect.Cache
	encoder   *encode.Encoder
	video     *video.Processor
	validator *validation.ParamValidator
	events    observer.Subject
}

// NewVisionService wires the facade from its collaborators
func NewVisionService(
	resolver media.Resolver,
	detectors *detect.Cache,
	encoder *encode.Encoder,
	videoProcessor *video.Processor,
	events observer.Subject,
) VisionService {
	return &visionService{
		resolver:  resolver,
		detectors: detectors,
		encoder:   encoder,
		video:     videoProcessor,
		validator: validation.NewParamValidator(),
		events:    events,
	}
}

// imageOp produces the processed buffer plus operation-specific metrics
type imageOp func(img *media.Image) (gocv.Mat, map[string]interface{}, error)

// runImageOp is the shared resolve → operate → finalize pipeline for image
// tools. Every buffer allocated along the way is released on every exit path.
func (s *visionService) runImageOp(ctx context.Context, req models.ToolRequest, operation string, op imageOp) (resp *models.ToolResponse, err error) {
	if err := s.validator.ValidatePath(req.Path); err != nil {
		return nil, err
	}

	start := time.Now()
	s.publish(ctx, observer.InvocationStarted, operation, req.Path, start, nil)
	defer func() {
		s.finishEvent(ctx, operation, req.Path, start, err)
	}()

	img, err := s.resolver.ResolveImage(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	out, metrics, err := op(img)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	result, warnings, err := s.encoder.FinalizeImage(ctx, out, req.Path, operation, req.OutputFormat, req.OutputQuality)
	if err != nil {
		return nil, err
	}

	result.Metrics["width"] = out.Cols()
	result.Metrics["height"] = out.Rows()
	result.Metrics["channels"] = out.Channels()
	result.Metrics["source_width"] = img.Width()
	result.Metrics["source_height"] = img.Height()
	for k, v := range metrics {
		result.Metrics[k] = v
	}

	return s.response(operation, req.Path, start, result, warnings), nil
}

func (s *visionService) Resize(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	if err := s.validator.ValidateResize(req); err != nil {
		return nil, err
	}
	return s.runImageOp(ctx, req, "resize", func(img *media.Image) (gocv.Mat, map[string]interface{}, error) {
		return transform.Resize(img.Mat, req.Width, req.Height, req.Scale), nil, nil
	})
}

func (s *visionService) Crop(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	if err := s.validator.ValidateCrop(req); err != nil {
		return nil, err
	}
	return s.runImageOp(ctx, req, "crop", func(img *media.Image) (gocv.Mat, map[string]interface{}, error) {
		out, err := transform.Crop(img.Mat, req.X, req.Y, req.Width, req.Height)
		return out, nil, err
	})
}

func (s *visionService) Flip(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	if err := s.validator.ValidateFlip(req); err != nil {
		return nil, err
	}
	return s.runImageOp(ctx, req, "flip", func(img *media.Image) (gocv.Mat, map[string]interface{}, error) {
		return transform.Flip(img.Mat, req.FlipCode), nil, nil
	})
}

func (s *visionService) Rotate(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	return s.runImageOp(ctx, req, "rotate", func(img *media.Image) (gocv.Mat, map[string]interface{}, error) {
		return transform.Rotate(img.Mat, req.Angle), map[string]interface{}{"angle": req.Angle}, nil
	})
}

func (s *visionService) ConvertColor(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	return s.runImageOp(ctx, req, "convert_color", func(img *media.Image) (gocv.Mat, map[string]interface{}, error) {
		out, err := transform.ConvertColor(img.Mat, req.TargetSpace)
		return out, map[string]interface{}{"target_space": req.TargetSpace}, err
	})
}

func (s *visionService) Edges(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	if err := s.validator.ValidateEdges(req); err != nil {
		return nil, err
	}
	low, high := req.ThresholdLow, req.ThresholdHi
	if high == 0 {
		low, high = 100, 200
	}
	return s.runImageOp(ctx, req, "edges", func(img *media.Image) (gocv.Mat, map[string]interface{}, error) {
		metrics := map[string]interface{}{"threshold_low": low, "threshold_high": high}
		return transform.Edges(img.Mat, low, high), metrics, nil
	})
}

func (s *visionService) Features(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	maxFeatures := req.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = 100
	}
	return s.runImageOp(ctx, req, "features", func(img *media.Image) (gocv.Mat, map[string]interface{}, error) {
		out, points := transform.Features(img.Mat, maxFeatures)
		return out, map[string]interface{}{"feature_count": len(points)}, nil
	})
}

func (s *visionService) Contours(ctx context.Context, req models.ToolRequest) (*models.ToolResponse, error) {
	return s.runImageOp(ctx, req, "contours", func(img *media.Image) (gocv.Mat, map[string]interface{}, error) {
		out, count := transform.Contours(img.Mat)
		return out, map[string]interface{}{"contour_count": count}, nil
	})
}

// response assembles the common envelope
func (s *visionService) response(operation, source string, start time.Time, result *models.ProcessingResult, warnings []string) *models.ToolResponse {
	return &models.ToolResponse{
		Operation:         operation,
		Source:            source,
		Timestamp:         start.Format("2006-01-02T15:04:05Z07:00"),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Result:            *result,
		Errors:            warnings,
	}
}

func (s *visionService) publish(ctx context.Context, eventType observer.EventType, operation, source string, start time.Time, err error) {
	if s.events == nil {
		return
	}
	event := observer.InvocationEvent{
		EventType:      eventType,
		Timestamp:      time.Now(),
		Operation:      operation,
		Source:         source,
		ProcessingTime: time.Since(start),
		Success:        err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	s.events.NotifyObservers(ctx, event)
}

func (s *visionService) finishEvent(ctx context.Context, operation, source string, start time.Time, err error) {
	if err != nil {
		s.publish(ctx, observer.InvocationFailed, operation, source, start, err)
		return
	}
	s.publish(ctx, observer.InvocationCompleted, operation, source, start, nil)
}
