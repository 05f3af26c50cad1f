package models

// Detection represents one located object or face in source-image pixel
// coordinates. Haar-based face detections carry a fixed confidence of 1.0
// because the cascade classifier exposes no score.
type Detection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Box is a top-left anchored bounding box in pixels
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ProcessingResult is the dual-output envelope every tool returns. StoredPath
// and Payload are independent best-effort slots derived from the same buffer;
// either may be empty when its output form failed, never both.
type ProcessingResult struct {
	StoredPath string `json:"stored_path,omitempty"`
	// Payload is a data URI (data:<mime>;base64,...) of the processed output.
	Payload string `json:"payload,omitempty"`
	// ArtifactURL is set when the stored output was also uploaded to blob storage.
	ArtifactURL string `json:"artifact_url,omitempty"`

	Metrics map[string]interface{} `json:"metrics"`
}

// ToolResponse is the full response body for a tool invocation
type ToolResponse struct {
	Operation         string  `json:"operation"`
	Source            string  `json:"source"`
	Timestamp         string  `json:"timestamp"`
	ProcessingTimeSec float64 `json:"processing_time_sec"`

	Result ProcessingResult `json:"result"`

	// Detection tools only.
	Detections []Detection       `json:"detections,omitempty"`
	ModelPaths map[string]string `json:"model_paths,omitempty"`

	// Video tools may emit extra per-frame outputs.
	Frames []ProcessingResult `json:"frames,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// MediaInfo describes decoded media dimensions and layout
type MediaInfo struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Channels   int     `json:"channels"`
	FrameCount int     `json:"frame_count,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	SizeBytes  int64   `json:"size_bytes,omitempty"`
}
