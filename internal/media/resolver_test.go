package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "go-vision-tools/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		reference string
		want      ReferenceKind
	}{
		{"http://example.com/a.jpg", RemoteURL},
		{"https://example.com/a.jpg", RemoteURL},
		{"/tmp/a.jpg", LocalPath},
		{"relative/a.jpg", LocalPath},
		{"ftp://example.com/a.jpg", LocalPath},
		{"file:///tmp/a.jpg", LocalPath},
		{"", LocalPath},
	}

	for _, tt := range tests {
		if got := Classify(tt.reference); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.reference, got, tt.want)
		}
	}
}

func TestInferSuffix(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		want        string
	}{
		{"content type wins", "image/png", "http://x/a.jpg", ".png"},
		{"content type with params", "image/webp; charset=binary", "http://x/a", ".webp"},
		{"url extension fallback", "application/octet-stream", "http://x/photo.gif", ".gif"},
		{"query string ignored", "", "http://x/photo.png?size=large&v=2", ".png"},
		{"encoded path degrades to default", "", "http://x/photo%20copy?a=b", ".jpg"},
		{"no hints defaults to jpg", "", "http://x/download", ".jpg"},
		{"video content type", "video/mp4", "http://x/clip", ".mp4"},
		{"absurdly long extension rejected", "", "http://x/a.verylongext", ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferSuffix(tt.contentType, tt.url); got != tt.want {
				t.Errorf("inferSuffix(%q, %q) = %q, want %q", tt.contentType, tt.url, got, tt.want)
			}
		})
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestResolveImage_Remote(t *testing.T) {
	data := pngBytes(t, 32, 24)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer server.Close()

	tempDir := t.TempDir()
	t.Setenv("TMPDIR", tempDir)

	r := NewResolver(5 * time.Second)
	img, err := r.ResolveImage(context.Background(), server.URL+"/pic.png")
	if err != nil {
		t.Fatalf("ResolveImage() error: %v", err)
	}
	defer img.Close()

	if img.Width() != 32 || img.Height() != 24 {
		t.Errorf("dimensions = %dx%d, want 32x24", img.Width(), img.Height())
	}
	// The temporary download must be gone by the time ResolveImage returns.
	if n := countFiles(t, tempDir); n != 0 {
		t.Errorf("temp dir has %d leftover files, want 0", n)
	}
}

func TestResolveImage_RemoteUndecodable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("this is not an image"))
	}))
	defer server.Close()

	tempDir := t.TempDir()
	t.Setenv("TMPDIR", tempDir)

	r := NewResolver(5 * time.Second)
	_, err := r.ResolveImage(context.Background(), server.URL+"/bad.png")
	if !apperrors.IsType(err, apperrors.ErrorTypeUnsupportedMedia) {
		t.Fatalf("error = %v, want unsupported_media", err)
	}
	// Temp file removal is guaranteed on the failure path too.
	if n := countFiles(t, tempDir); n != 0 {
		t.Errorf("temp dir has %d leftover files, want 0", n)
	}
}

func TestResolveImage_RemoteStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	r := NewResolver(5 * time.Second)
	_, err := r.ResolveImage(context.Background(), server.URL+"/gone.jpg")
	if !apperrors.IsType(err, apperrors.ErrorTypeUnreachableSource) {
		t.Fatalf("error = %v, want unreachable_source", err)
	}
}

func TestResolveImage_Local(t *testing.T) {
	dir := t.TempDir()
	localPath := filepath.Join(dir, "local.png")
	if err := os.WriteFile(localPath, pngBytes(t, 10, 10), 0o644); err != nil {
		t.Fatal(err)
	}

	tempDir := t.TempDir()
	t.Setenv("TMPDIR", tempDir)

	r := NewResolver(5 * time.Second)
	img, err := r.ResolveImage(context.Background(), localPath)
	if err != nil {
		t.Fatalf("ResolveImage() error: %v", err)
	}
	defer img.Close()

	// Local resolution never allocates temporary files.
	if n := countFiles(t, tempDir); n != 0 {
		t.Errorf("temp dir has %d files after local resolve, want 0", n)
	}
}

func TestResolveImage_LocalMissing(t *testing.T) {
	r := NewResolver(5 * time.Second)
	_, err := r.ResolveImage(context.Background(), "/nonexistent/path/image.jpg")
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("error = %v, want not_found", err)
	}
}

func TestResolveImage_FtpSchemeIsLocal(t *testing.T) {
	// ftp:// is not scheme-validated; it falls through to local-path handling
	// and fails as an absent file, not as an unreachable source.
	r := NewResolver(5 * time.Second)
	_, err := r.ResolveImage(context.Background(), "ftp://example.com/image.jpg")
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("error = %v, want not_found", err)
	}
}

func TestResolveVideo_LocalMissing(t *testing.T) {
	r := NewResolver(5 * time.Second)
	_, err := r.ResolveVideo(context.Background(), "/nonexistent/clip.mp4")
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("error = %v, want not_found", err)
	}
}

func TestResolveVideo_RemoteTempLifecycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("not really mp4 but lifecycle is what matters here"))
	}))
	defer server.Close()

	tempDir := t.TempDir()
	t.Setenv("TMPDIR", tempDir)

	r := NewResolver(5 * time.Second)
	vid, err := r.ResolveVideo(context.Background(), server.URL+"/clip.mp4")
	if err != nil {
		t.Fatalf("ResolveVideo() error: %v", err)
	}
	if n := countFiles(t, tempDir); n != 1 {
		t.Fatalf("temp dir has %d files while video is open, want 1", n)
	}
	if err := vid.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if n := countFiles(t, tempDir); n != 0 {
		t.Errorf("temp dir has %d files after Close, want 0", n)
	}
}
