package media

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/logger"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Resolver turns a media reference (URL or local path) into decoded data
type Resolver interface {
	ResolveImage(ctx context.Context, reference string) (*Image, error)
	ResolveVideo(ctx context.Context, reference string) (*Video, error)
}

// HTTPResolver implements Resolver with a tuned HTTP client for remote fetches
type HTTPResolver struct {
	client *http.Client
	log    *logrus.Entry
}

// NewResolver creates a resolver whose remote fetches are bounded by timeout
func NewResolver(timeout time.Duration) *HTTPResolver {
	transport := &http.Transport{
		// Connection pooling sized for one-shot media downloads
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableCompression:     false,
		MaxResponseHeaderBytes: 4096,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	return &HTTPResolver{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		log: logger.WithComponent("media_resolver"),
	}
}

// ResolveImage decodes the referenced image. Remote references are downloaded
// to a temporary file which is always removed before this returns; local
// references allocate no temporary storage.
func (r *HTTPResolver) ResolveImage(ctx context.Context, reference string) (*Image, error) {
	readPath := reference

	if Classify(reference) == RemoteURL {
		tempPath, err := r.download(ctx, reference)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tempPath)
		readPath = tempPath
	} else if _, err := os.Stat(reference); err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("media not found: %s", reference), err)
	}

	mat := gocv.IMRead(readPath, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, apperrors.NewUnsupportedMediaError(
			fmt.Sprintf("could not decode image from %s", reference), nil)
	}

	r.log.WithFields(logrus.Fields{
		"reference": reference,
		"width":     mat.Cols(),
		"height":    mat.Rows(),
	}).Debug("Resolved image")

	return &Image{Mat: mat, Origin: reference}, nil
}

// ResolveVideo makes the referenced video available as an on-disk file that a
// VideoCapture can stream from. Remote downloads stay in their temporary file
// until the returned value is closed.
func (r *HTTPResolver) ResolveVideo(ctx context.Context, reference string) (*Video, error) {
	if Classify(reference) == RemoteURL {
		tempPath, err := r.download(ctx, reference)
		if err != nil {
			return nil, err
		}
		return &Video{Path: tempPath, Origin: reference, tempPath: tempPath}, nil
	}

	if _, err := os.Stat(reference); err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("media not found: %s", reference), err)
	}
	return &Video{Path: reference, Origin: reference}, nil
}

// download fetches a remote reference into a temporary file and returns its
// path. The caller owns the file.
func (r *HTTPResolver) download(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", apperrors.NewUnreachableSourceError("invalid URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, video/*, */*")
	req.Header.Set("User-Agent", "Go-Vision-Tools/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", apperrors.NewUnreachableSourceError(
			fmt.Sprintf("failed to fetch %s", rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewUnreachableSourceError(
			fmt.Sprintf("fetch of %s returned status %d", rawURL, resp.StatusCode), nil)
	}

	suffix := inferSuffix(resp.Header.Get("Content-Type"), rawURL)

	tempFile, err := os.CreateTemp("", "vision-*"+suffix)
	if err != nil {
		return "", apperrors.NewInternalError("failed to create temporary file", err)
	}

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return "", apperrors.NewUnreachableSourceError(
			fmt.Sprintf("failed to read body of %s", rawURL), err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempFile.Name())
		return "", apperrors.NewInternalError("failed to write temporary file", err)
	}

	r.log.WithFields(logrus.Fields{
		"url":  rawURL,
		"temp": tempFile.Name(),
	}).Debug("Downloaded remote media")

	return tempFile.Name(), nil
}

var contentTypeSuffixes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"image/tiff":      ".tiff",
	"video/mp4":       ".mp4",
	"video/x-msvideo": ".avi",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
	"video/x-matroska": ".mkv",
}

// inferSuffix picks a plausible file suffix for a download. The declared
// content type wins; the URL's trailing path segment is the fallback and .jpg
// the last resort. Query strings and encoded characters must never produce an
// invalid suffix.
func inferSuffix(contentType, rawURL string) string {
	if contentType != "" {
		mediaType := contentType
		if i := strings.Index(mediaType, ";"); i >= 0 {
			mediaType = mediaType[:i]
		}
		mediaType = strings.TrimSpace(strings.ToLower(mediaType))
		if suffix, ok := contentTypeSuffixes[mediaType]; ok {
			return suffix
		}
	}

	if parsed, err := url.Parse(rawURL); err == nil {
		ext := path.Ext(parsed.Path)
		if isSaneSuffix(ext) {
			return strings.ToLower(ext)
		}
	}
	return ".jpg"
}

// isSaneSuffix accepts short, purely alphanumeric extensions
func isSaneSuffix(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
