package service

import (
	"context"
	"image"
	"time"

	"go-vision-tools/internal/observer"
	"go-vision-tools/pkg/models"
)

// VideoInfo reports dimensions, frame count, FPS, codec and container size
func (s *visionService) VideoInfo(ctx context.Context, req models.ToolRequest) (resp *models.ToolResponse, err error) {
	if err := s.validator.ValidatePath(req.Path); err != nil {
		return nil, err
	}

	start := time.Now()
	s.publish(ctx, observer.InvocationStarted, "video_info", req.Path, start, nil)
	defer func() {
		s.finishEvent(ctx, "video_info", req.Path, start, err)
	}()

	v, err := s.resolver.ResolveVideo(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	info, codec, err := s.video.Info(v)
	if err != nil {
		return nil, err
	}

	result := &models.ProcessingResult{Metrics: map[string]interface{}{
		"width":       info.Width,
		"height":      info.Height,
		"frame_count": info.FrameCount,
		"fps":         info.FPS,
		"codec":       codec,
		"size_bytes":  info.SizeBytes,
	}}
	if info.FPS > 0 {
		result.Metrics["duration_sec"] = float64(info.FrameCount) / info.FPS
	}
	return s.response("video_info", req.Path, start, result, nil), nil
}

// ExtractFrames persists selected frames as images; the response carries one
// processing result per frame.
func (s *visionService) ExtractFrames(ctx context.Context, req models.ToolRequest) (resp *models.ToolResponse, err error) {
	if err := s.validator.ValidatePath(req.Path); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateFrames(req); err != nil {
		return nil, err
	}

	start := time.Now()
	s.publish(ctx, observer.InvocationStarted, "extract_frames", req.Path, start, nil)
	defer func() {
		s.finishEvent(ctx, "extract_frames", req.Path, start, err)
	}()

	v, err := s.resolver.ResolveVideo(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	frames, err := s.video.ExtractFrames(ctx, v, req.StartFrame, req.FrameCount, req.FrameStep)
	if err != nil {
		return nil, err
	}

	result := &models.ProcessingResult{Metrics: map[string]interface{}{
		"frame_count": len(frames),
		"start_frame": req.StartFrame,
	}}
	response := s.response("extract_frames", req.Path, start, result, nil)
	response.Frames = frames
	return response, nil
}

// DetectMotion runs background subtraction over the whole video and returns
// an annotated video plus per-frame motion events.
func (s *visionService) DetectMotion(ctx context.Context, req models.ToolRequest) (resp *models.ToolResponse, err error) {
	if err := s.validator.ValidatePath(req.Path); err != nil {
		return nil, err
	}

	start := time.Now()
	s.publish(ctx, observer.InvocationStarted, "detect_motion", req.Path, start, nil)
	defer func() {
		s.finishEvent(ctx, "detect_motion", req.Path, start, err)
	}()

	v, err := s.resolver.ResolveVideo(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	result, events, err := s.video.DetectMotion(ctx, v, req.MinArea)
	if err != nil {
		return nil, err
	}

	result.Metrics["events"] = events
	return s.response("detect_motion", req.Path, start, result, nil), nil
}

// TrackObject follows the requested region across the video with a MIL tracker
func (s *visionService) TrackObject(ctx context.Context, req models.ToolRequest) (resp *models.ToolResponse, err error) {
	if err := s.validator.ValidatePath(req.Path); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateTrack(req); err != nil {
		return nil, err
	}

	start := time.Now()
	s.publish(ctx, observer.InvocationStarted, "track_object", req.Path, start, nil)
	defer func() {
		s.finishEvent(ctx, "track_object", req.Path, start, err)
	}()

	v, err := s.resolver.ResolveVideo(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	roi := image.Rect(req.ROI.X, req.ROI.Y, req.ROI.X+req.ROI.Width, req.ROI.Y+req.ROI.Height)
	result, positions, err := s.video.TrackObject(ctx, v, roi)
	if err != nil {
		return nil, err
	}

	result.Metrics["positions"] = positions
	return s.response("track_object", req.Path, start, result, nil), nil
}
