package models

// ToolRequest carries the parameters common to every tool invocation plus the
// operation-specific knobs. Unused fields are ignored by operations that do
// not read them; range validation happens in pkg/validation.
type ToolRequest struct {
	// Path is an http(s) URL or a local filesystem path.
	Path string `json:"path" binding:"required"`

	// Geometric transforms.
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Angle    float64 `json:"angle,omitempty"`
	FlipCode int     `json:"flip_code,omitempty"`
	X        int     `json:"x,omitempty"`
	Y        int     `json:"y,omitempty"`

	// Color / edge / feature parameters.
	TargetSpace  string  `json:"target_space,omitempty"`
	ThresholdLow float64 `json:"threshold_low,omitempty"`
	ThresholdHi  float64 `json:"threshold_high,omitempty"`
	MaxFeatures  int     `json:"max_features,omitempty"`

	// Detection parameters.
	Method        string  `json:"method,omitempty"` // "haar" or "dnn" for faces
	Confidence    float64 `json:"confidence,omitempty"`
	NMSThreshold  float64 `json:"nms_threshold,omitempty"`
	MinNeighbors  int     `json:"min_neighbors,omitempty"`
	ScaleFactor   float64 `json:"scale_factor,omitempty"`
	DrawBoxes     *bool   `json:"draw_boxes,omitempty"`
	OutputFormat  string  `json:"output_format,omitempty"` // jpg, png, webp
	OutputQuality int     `json:"output_quality,omitempty"`

	// Video parameters.
	StartFrame int `json:"start_frame,omitempty"`
	FrameCount int `json:"frame_count,omitempty"`
	FrameStep  int `json:"frame_step,omitempty"`
	MinArea    int `json:"min_area,omitempty"`
	ROI        *Box `json:"roi,omitempty"`
}
