package video

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"go-vision-tools/internal/encode"
	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/logger"
	"go-vision-tools/internal/media"
	"go-vision-tools/pkg/models"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// maxInlineFrames bounds how many extracted frames carry an inline payload,
// keeping responses to a sane size; the rest are stored-path only.
const maxInlineFrames = 8

var motionColor = color.RGBA{R: 255, A: 255}

// Processor implements the video operations. It holds no per-invocation
// state; every call owns its capture, frames and writer exclusively.
type Processor struct {
	encoder *encode.Encoder
	log     *logrus.Entry
}

// NewProcessor creates a video processor writing outputs through the encoder
func NewProcessor(encoder *encode.Encoder) *Processor {
	return &Processor{
		encoder: encoder,
		log:     logger.WithComponent("video_processor"),
	}
}

// Info reads container-level properties without decoding frames
func (p *Processor) Info(v *media.Video) (*models.MediaInfo, string, error) {
	capture, err := v.Capture()
	if err != nil {
		return nil, "", apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("could not open video %s", v.Origin), err)
	}
	defer capture.Close()

	info := &models.MediaInfo{
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		Channels:   3,
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		FPS:        capture.Get(gocv.VideoCaptureFPS),
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, "", apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("could not decode video %s", v.Origin), nil)
	}
	return info, capture.CodecString(), nil
}

// ExtractFrames decodes count frames starting at start, taking every step-th
// frame, and persists each as a JPEG. Frame encoding runs on a worker pool;
// only the first few results carry inline payloads.
func (p *Processor) ExtractFrames(ctx context.Context, v *media.Video, start, count, step int) ([]models.ProcessingResult, error) {
	if step <= 0 {
		step = 1
	}
	if count <= 0 {
		count = 1
	}

	capture, err := v.Capture()
	if err != nil {
		return nil, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("could not open video %s", v.Origin), err)
	}
	defer capture.Close()

	capture.Set(gocv.VideoCapturePosFrames, float64(start))

	// Frames are read sequentially, cloned, then encoded concurrently.
	type job struct {
		index int
		frame gocv.Mat
	}
	var jobs []job
	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; len(jobs) < count; i++ {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}
		if i%step != 0 {
			continue
		}
		jobs = append(jobs, job{index: start + i, frame: frame.Clone()})
	}

	if len(jobs) == 0 {
		return nil, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("no decodable frames in %s from frame %d", v.Origin, start), nil)
	}

	results := make([]models.ProcessingResult, len(jobs))
	var mu sync.Mutex
	var warnings []string

	pool := NewWorkerPool(0)
	pool.Start()
	defer pool.Close()

	for i, j := range jobs {
		i, j := i, j
		pool.Submit(func() {
			defer j.frame.Close()
			tag := fmt.Sprintf("frame_%d", j.index)
			result, w, err := p.encoder.FinalizeImage(ctx, j.frame, v.Origin, tag, "jpg", 0)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("frame %d: %v", j.index, err))
				return
			}
			warnings = append(warnings, w...)
			results[i] = *result
		})
	}
	pool.Wait()

	if len(warnings) > 0 {
		p.log.WithField("warnings", warnings).Warn("Frame extraction finished with warnings")
	}

	// Trim inline payloads beyond the cap.
	for i := range results {
		if i >= maxInlineFrames {
			results[i].Payload = ""
		}
	}
	return results, nil
}

// MotionEvent is one frame's worth of detected movement
type MotionEvent struct {
	Frame int          `json:"frame"`
	Boxes []models.Box `json:"boxes"`
}

// DetectMotion runs MOG2 background subtraction across the video, draws
// motion boxes larger than minArea onto an annotated output video and
// returns the per-frame events.
func (p *Processor) DetectMotion(ctx context.Context, v *media.Video, minArea int) (*models.ProcessingResult, []MotionEvent, error) {
	if minArea <= 0 {
		minArea = 500
	}

	capture, err := v.Capture()
	if err != nil {
		return nil, nil, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("could not open video %s", v.Origin), err)
	}
	defer capture.Close()

	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 25
	}

	outputPath := p.encoder.OutputPath(v.Origin, "motion", ".avi")
	writer, err := gocv.VideoWriterFile(outputPath, "MJPG", fps, width, height, true)
	if err != nil {
		return nil, nil, apperrors.NewInternalError("could not open output video", err)
	}
	defer writer.Close()

	subtractor := gocv.NewBackgroundSubtractorMOG2()
	defer subtractor.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5))
	defer kernel.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	thresh := gocv.NewMat()
	defer thresh.Close()

	var events []MotionEvent
	frameIndex := 0

	for {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}

		subtractor.Apply(frame, &mask)
		// Shadows come back as mid-gray; keep confident foreground only.
		gocv.Threshold(mask, &thresh, 200, 255, gocv.ThresholdBinary)
		gocv.Dilate(thresh, &thresh, kernel)

		contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
		var boxes []models.Box
		for i := 0; i < contours.Size(); i++ {
			contour := contours.At(i)
			if gocv.ContourArea(contour) < float64(minArea) {
				continue
			}
			rect := gocv.BoundingRect(contour)
			gocv.Rectangle(&frame, rect, motionColor, 2)
			boxes = append(boxes, models.Box{
				X: rect.Min.X, Y: rect.Min.Y,
				Width: rect.Dx(), Height: rect.Dy(),
			})
		}
		contours.Close()

		if len(boxes) > 0 {
			events = append(events, MotionEvent{Frame: frameIndex, Boxes: boxes})
		}
		writer.Write(frame)
		frameIndex++
	}

	if frameIndex == 0 {
		return nil, nil, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("no decodable frames in %s", v.Origin), nil)
	}

	result, warnings, err := p.encoder.FinalizeVideoFile(ctx, outputPath)
	if err != nil {
		return nil, nil, err
	}
	if len(warnings) > 0 {
		p.log.WithField("warnings", warnings).Warn("Motion output finished with warnings")
	}

	result.Metrics["frames_processed"] = frameIndex
	result.Metrics["motion_frames"] = len(events)
	return result, events, nil
}

// TrackObject follows a caller-supplied ROI through the video with a MIL
// tracker, writing an annotated output video and returning the per-frame
// track boxes.
func (p *Processor) TrackObject(ctx context.Context, v *media.Video, roi image.Rectangle) (*models.ProcessingResult, []MotionEvent, error) {
	capture, err := v.Capture()
	if err != nil {
		return nil, nil, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("could not open video %s", v.Origin), err)
	}
	defer capture.Close()

	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 25
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := capture.Read(&frame); !ok || frame.Empty() {
		return nil, nil, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("no decodable frames in %s", v.Origin), nil)
	}

	tracker := gocv.NewTrackerMIL()
	defer tracker.Close()
	if ok := tracker.Init(frame, roi); !ok {
		return nil, nil, apperrors.NewInvalidParameterError("roi", "tracker could not initialize on the given region")
	}

	outputPath := p.encoder.OutputPath(v.Origin, "track", ".avi")
	writer, err := gocv.VideoWriterFile(outputPath, "MJPG", fps, width, height, true)
	if err != nil {
		return nil, nil, apperrors.NewInternalError("could not open output video", err)
	}
	defer writer.Close()

	var track []MotionEvent
	frameIndex := 0
	lost := 0

	for {
		rect, ok := tracker.Update(frame)
		if ok {
			gocv.Rectangle(&frame, rect, motionColor, 2)
			track = append(track, MotionEvent{
				Frame: frameIndex,
				Boxes: []models.Box{{
					X: rect.Min.X, Y: rect.Min.Y,
					Width: rect.Dx(), Height: rect.Dy(),
				}},
			})
		} else {
			lost++
		}
		writer.Write(frame)
		frameIndex++

		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}
	}

	result, warnings, err := p.encoder.FinalizeVideoFile(ctx, outputPath)
	if err != nil {
		return nil, nil, err
	}
	if len(warnings) > 0 {
		p.log.WithField("warnings", warnings).Warn("Track output finished with warnings")
	}

	result.Metrics["frames_processed"] = frameIndex
	result.Metrics["frames_tracked"] = len(track)
	result.Metrics["frames_lost"] = lost
	return result, track, nil
}
