package validation

import (
	"fmt"
	"strings"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/pkg/models"
)

// ParamValidator checks operation parameters before any media is resolved,
// so a bad request never pays for a download.
type ParamValidator struct{}

// NewParamValidator creates a parameter validator
func NewParamValidator() *ParamValidator {
	return &ParamValidator{}
}

// ValidatePath requires a non-empty media reference
func (v *ParamValidator) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.NewInvalidParameterError("path", "path must not be empty")
	}
	return nil
}

// ValidateResize requires either positive dimensions or a positive scale
func (v *ParamValidator) ValidateResize(req models.ToolRequest) error {
	if req.Width < 0 || req.Height < 0 {
		return apperrors.NewInvalidParameterError("width", "dimensions must be non-negative")
	}
	if (req.Width == 0) != (req.Height == 0) {
		return apperrors.NewInvalidParameterError("height", "width and height must be given together")
	}
	if req.Width == 0 && req.Scale <= 0 {
		return apperrors.NewInvalidParameterError("scale", "either dimensions or a positive scale is required")
	}
	return nil
}

// ValidateCrop requires a positive region
func (v *ParamValidator) ValidateCrop(req models.ToolRequest) error {
	if req.X < 0 || req.Y < 0 {
		return apperrors.NewInvalidParameterError("x", "crop origin must be non-negative")
	}
	if req.Width <= 0 || req.Height <= 0 {
		return apperrors.NewInvalidParameterError("width", "crop dimensions must be positive")
	}
	return nil
}

// ValidateFlip restricts the flip code to the three supported axes
func (v *ParamValidator) ValidateFlip(req models.ToolRequest) error {
	if req.FlipCode < -1 || req.FlipCode > 1 {
		return apperrors.NewInvalidParameterError("flip_code", "flip_code must be -1, 0 or 1")
	}
	return nil
}

// ValidateEdges requires ordered non-negative Canny thresholds
func (v *ParamValidator) ValidateEdges(req models.ToolRequest) error {
	if req.ThresholdLow < 0 || req.ThresholdHi < 0 {
		return apperrors.NewInvalidParameterError("threshold_low", "thresholds must be non-negative")
	}
	if req.ThresholdHi > 0 && req.ThresholdLow > req.ThresholdHi {
		return apperrors.NewInvalidParameterError("threshold_low", "threshold_low must not exceed threshold_high")
	}
	return nil
}

// ValidateDetection checks confidence and NMS thresholds plus the face method
func (v *ParamValidator) ValidateDetection(req models.ToolRequest) error {
	if req.Confidence < 0 || req.Confidence > 1 {
		return apperrors.NewInvalidParameterError("confidence", "confidence must be within [0,1]")
	}
	if req.NMSThreshold < 0 || req.NMSThreshold > 1 {
		return apperrors.NewInvalidParameterError("nms_threshold", "nms_threshold must be within [0,1]")
	}
	if req.Method != "" && req.Method != "haar" && req.Method != "dnn" {
		return apperrors.NewInvalidParameterError("method",
			fmt.Sprintf("unknown face detection method %q (want haar or dnn)", req.Method))
	}
	if req.ScaleFactor != 0 && req.ScaleFactor <= 1.0 {
		return apperrors.NewInvalidParameterError("scale_factor", "scale_factor must be greater than 1.0")
	}
	if req.MinNeighbors < 0 {
		return apperrors.NewInvalidParameterError("min_neighbors", "min_neighbors must be non-negative")
	}
	return nil
}

// ValidateFrames checks frame-extraction bounds
func (v *ParamValidator) ValidateFrames(req models.ToolRequest) error {
	if req.StartFrame < 0 {
		return apperrors.NewInvalidParameterError("start_frame", "start_frame must be non-negative")
	}
	if req.FrameCount < 0 {
		return apperrors.NewInvalidParameterError("frame_count", "frame_count must be non-negative")
	}
	if req.FrameStep < 0 {
		return apperrors.NewInvalidParameterError("frame_step", "frame_step must be non-negative")
	}
	return nil
}

// ValidateTrack requires a positive tracking ROI
func (v *ParamValidator) ValidateTrack(req models.ToolRequest) error {
	if req.ROI == nil {
		return apperrors.NewInvalidParameterError("roi", "roi is required for tracking")
	}
	if req.ROI.Width <= 0 || req.ROI.Height <= 0 {
		return apperrors.NewInvalidParameterError("roi", "roi dimensions must be positive")
	}
	if req.ROI.X < 0 || req.ROI.Y < 0 {
		return apperrors.NewInvalidParameterError("roi", "roi origin must be non-negative")
	}
	return nil
}
