package media

import (
	"os"
	"strings"

	"gocv.io/x/gocv"
)

// ReferenceKind classifies a caller-supplied media reference
type ReferenceKind int

const (
	// RemoteURL is an http:// or https:// reference
	RemoteURL ReferenceKind = iota
	// LocalPath is everything else, including unsupported schemes like ftp://
	LocalPath
)

// Classify determines the reference kind from the scheme prefix alone.
// This is deliberately narrow: anything that is not http(s) is treated as a
// local path and will fail resolution with not_found if it does not exist.
func Classify(reference string) ReferenceKind {
	if strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		return RemoteURL
	}
	return LocalPath
}

// Image is decoded pixel data plus provenance. The Mat is exclusively owned
// by the resolving call; Close must run on every exit path.
type Image struct {
	Mat    gocv.Mat
	Origin string
}

// Width returns the pixel width of the decoded image
func (i *Image) Width() int {
	return i.Mat.Cols()
}

// Height returns the pixel height of the decoded image
func (i *Image) Height() int {
	return i.Mat.Rows()
}

// Channels returns the per-pixel channel count
func (i *Image) Channels() int {
	return i.Mat.Channels()
}

// Close releases the underlying pixel buffer
func (i *Image) Close() error {
	if i == nil {
		return nil
	}
	return i.Mat.Close()
}

// Video is a frame-addressable reference to decodable video data. For remote
// origins Path points at a temporary download owned by this value; Close
// removes it.
type Video struct {
	Path     string
	Origin   string
	tempPath string
}

// Close removes the temporary backing file, if any
func (v *Video) Close() error {
	if v == nil || v.tempPath == "" {
		return nil
	}
	err := os.Remove(v.tempPath)
	v.tempPath = ""
	return err
}

// Capture opens the video for frame-by-frame reading
func (v *Video) Capture() (*gocv.VideoCapture, error) {
	return gocv.VideoCaptureFile(v.Path)
}
