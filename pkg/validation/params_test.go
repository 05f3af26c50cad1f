package validation

import (
	"testing"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/pkg/models"
)

func assertInvalidParameter(t *testing.T, err error, parameter string) {
	t.Helper()
	appErr, ok := err.(*apperrors.AppError)
	if !ok || appErr.Type != apperrors.ErrorTypeInvalidParameter {
		t.Fatalf("error = %v, want invalid_parameter", err)
	}
	if appErr.Parameter != parameter {
		t.Errorf("Parameter = %q, want %q", appErr.Parameter, parameter)
	}
}

func TestValidatePath(t *testing.T) {
	v := NewParamValidator()
	if err := v.ValidatePath("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
	if err := v.ValidatePath("http://example.com/a.jpg"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateResize(t *testing.T) {
	v := NewParamValidator()

	tests := []struct {
		name      string
		req       models.ToolRequest
		parameter string // empty means valid
	}{
		{"explicit dimensions", models.ToolRequest{Width: 100, Height: 50}, ""},
		{"scale only", models.ToolRequest{Scale: 0.5}, ""},
		{"negative width", models.ToolRequest{Width: -1, Height: 50}, "width"},
		{"width without height", models.ToolRequest{Width: 100}, "height"},
		{"nothing given", models.ToolRequest{}, "scale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateResize(tt.req)
			if tt.parameter == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			assertInvalidParameter(t, err, tt.parameter)
		})
	}
}

func TestValidateDetection(t *testing.T) {
	v := NewParamValidator()

	tests := []struct {
		name      string
		req       models.ToolRequest
		parameter string
	}{
		{"defaults", models.ToolRequest{}, ""},
		{"valid thresholds", models.ToolRequest{Confidence: 0.7, NMSThreshold: 0.3}, ""},
		{"confidence above one", models.ToolRequest{Confidence: 1.5}, "confidence"},
		{"negative nms", models.ToolRequest{NMSThreshold: -0.1}, "nms_threshold"},
		{"unknown method", models.ToolRequest{Method: "cnn"}, "method"},
		{"haar method ok", models.ToolRequest{Method: "haar"}, ""},
		{"scale factor too low", models.ToolRequest{ScaleFactor: 0.9}, "scale_factor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDetection(tt.req)
			if tt.parameter == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			assertInvalidParameter(t, err, tt.parameter)
		})
	}
}

func TestValidateTrack(t *testing.T) {
	v := NewParamValidator()

	if err := v.ValidateTrack(models.ToolRequest{}); err == nil {
		t.Fatal("expected error for missing roi")
	}
	err := v.ValidateTrack(models.ToolRequest{ROI: &models.Box{X: 0, Y: 0, Width: 0, Height: 10}})
	assertInvalidParameter(t, err, "roi")

	if err := v.ValidateTrack(models.ToolRequest{ROI: &models.Box{X: 5, Y: 5, Width: 40, Height: 40}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateFrames(t *testing.T) {
	v := NewParamValidator()
	err := v.ValidateFrames(models.ToolRequest{StartFrame: -1})
	assertInvalidParameter(t, err, "start_frame")

	if err := v.ValidateFrames(models.ToolRequest{StartFrame: 10, FrameCount: 5, FrameStep: 2}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
