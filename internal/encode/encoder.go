package encode

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/logger"
	"go-vision-tools/internal/media"
	"go-vision-tools/pkg/models"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// DefaultJPEGQuality is the fixed quality used when the caller does not ask
// for one.
const DefaultJPEGQuality = 95

// Encoder persists processed buffers and produces portable inline payloads.
// File write and inline encoding are independent best-effort outputs derived
// from the same in-memory buffer; only both failing is fatal.
type Encoder struct {
	outputDir string
	store     ArtifactStore
	log       *logrus.Entry
}

// NewEncoder creates an encoder. outputDir may be empty: outputs then land
// next to local sources, or in the working directory for remote sources.
// store may be nil to disable artifact upload.
func NewEncoder(outputDir string, store ArtifactStore) *Encoder {
	return &Encoder{
		outputDir: outputDir,
		store:     store,
		log:       logger.WithComponent("result_encoder"),
	}
}

// FinalizeImage writes the buffer to a derived output path and encodes it
// into a data-URI payload. Warnings describe output slots that failed
// non-fatally; the returned error is set only when every slot failed.
func (e *Encoder) FinalizeImage(ctx context.Context, img gocv.Mat, sourceRef, operation, format string, quality int) (*models.ProcessingResult, []string, error) {
	ext, fileExt, params, mimeType := encodingFor(format, quality)
	outputPath := e.OutputPath(sourceRef, operation, ext)

	result := &models.ProcessingResult{Metrics: map[string]interface{}{}}
	var warnings []string

	// Inline payload, straight from the buffer.
	buf, err := gocv.IMEncodeWithParams(fileExt, img, params)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("inline encoding failed: %v", err))
	} else {
		encoded := base64.StdEncoding.EncodeToString(buf.GetBytes())
		result.Payload = fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)
		buf.Close()
	}

	// Stored file, written independently from the same buffer.
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		warnings = append(warnings, fmt.Sprintf("output directory unavailable: %v", err))
	} else if ok := gocv.IMWriteWithParams(outputPath, img, params); !ok {
		warnings = append(warnings, fmt.Sprintf("failed to write %s", outputPath))
	} else {
		result.StoredPath = outputPath
		e.uploadArtifact(ctx, result, outputPath)
	}

	if result.Payload == "" && result.StoredPath == "" {
		return nil, warnings, apperrors.NewInternalError(
			fmt.Sprintf("every output form failed for %s", operation), nil)
	}

	e.log.WithFields(logrus.Fields{
		"operation": operation,
		"stored":    result.StoredPath != "",
		"inline":    result.Payload != "",
	}).Debug("Finalized image output")

	return result, warnings, nil
}

// FinalizeVideoFile inlines an already-written video container and wraps it
// with its stored path. Videos cannot be re-encoded from a single in-memory
// buffer, so the payload comes from the container file the operation wrote.
func (e *Encoder) FinalizeVideoFile(ctx context.Context, videoPath string) (*models.ProcessingResult, []string, error) {
	result := &models.ProcessingResult{
		StoredPath: videoPath,
		Metrics:    map[string]interface{}{},
	}
	var warnings []string

	data, err := os.ReadFile(videoPath)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("inline encoding failed: %v", err))
		if _, statErr := os.Stat(videoPath); statErr != nil {
			return nil, warnings, apperrors.NewInternalError(
				fmt.Sprintf("video output missing at %s", videoPath), err)
		}
		return result, warnings, nil
	}

	mimeType := videoMIME(filepath.Ext(videoPath))
	result.Payload = fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	e.uploadArtifact(ctx, result, videoPath)

	return result, warnings, nil
}

// OutputPath derives the stored-file path for an operation on a source:
// base name (query and scheme stripped for URLs) + operation tag + timestamp.
func (e *Encoder) OutputPath(sourceRef, operation, ext string) string {
	base := deriveBaseName(sourceRef)
	name := fmt.Sprintf("%s_%s_%s%s", base, operation, time.Now().Format("20060102_150405"), ext)

	dir := e.outputDir
	if dir == "" {
		if media.Classify(sourceRef) == media.RemoteURL {
			dir = "."
		} else {
			dir = filepath.Dir(sourceRef)
		}
	}
	return filepath.Join(dir, name)
}

// uploadArtifact pushes the stored file to the artifact store when one is
// configured. Best-effort: failure never affects the other output slots.
func (e *Encoder) uploadArtifact(ctx context.Context, result *models.ProcessingResult, storedPath string) {
	if e.store == nil {
		return
	}
	data, err := os.ReadFile(storedPath)
	if err != nil {
		e.log.WithError(err).Warn("Artifact upload skipped: stored file unreadable")
		return
	}
	artifactURL, err := e.store.Upload(ctx, filepath.Base(storedPath), data)
	if err != nil {
		e.log.WithError(err).Warn("Artifact upload failed")
		return
	}
	result.ArtifactURL = artifactURL
}

// deriveBaseName extracts a filesystem-safe base name from a reference,
// stripping URL query strings and extensions.
func deriveBaseName(sourceRef string) string {
	name := sourceRef
	if media.Classify(sourceRef) == media.RemoteURL {
		if parsed, err := url.Parse(sourceRef); err == nil {
			name = path.Base(parsed.Path)
		} else {
			name = path.Base(sourceRef)
			if i := strings.Index(name, "?"); i >= 0 {
				name = name[:i]
			}
		}
		if name == "" || name == "/" || name == "." {
			name = "image"
		}
	} else {
		name = filepath.Base(sourceRef)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// encodingFor maps a caller format to encoder parameters, defaulting to JPEG
func encodingFor(format string, quality int) (ext string, fileExt gocv.FileExt, params []int, mimeType string) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	switch strings.ToLower(format) {
	case "png":
		return ".png", gocv.PNGFileExt, []int{gocv.IMWritePngCompression, 9}, "image/png"
	case "webp":
		return ".webp", gocv.FileExt(".webp"), []int{gocv.IMWriteWebpQuality, quality}, "image/webp"
	default:
		return ".jpg", gocv.JPEGFileExt, []int{gocv.IMWriteJpegQuality, quality}, "image/jpeg"
	}
}

func videoMIME(ext string) string {
	switch strings.ToLower(ext) {
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}
