package detect

import (
	"path/filepath"
	"testing"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/model"
)

// row builds a raw YOLO output row: normalized center box, objectness,
// then per-class scores.
func row(cx, cy, w, h float32, scores ...float32) []float32 {
	r := []float32{cx, cy, w, h, 1.0}
	return append(r, scores...)
}

var testClasses = []string{"person", "bicycle", "car"}

func TestDecodeCandidates_ClassArgmaxAndThreshold(t *testing.T) {
	rows := [][]float32{
		row(0.5, 0.5, 0.2, 0.2, 0.1, 0.05, 0.8), // car, 0.8
		row(0.3, 0.3, 0.1, 0.1, 0.6, 0.2, 0.1),  // person, 0.6
		row(0.7, 0.7, 0.1, 0.1, 0.3, 0.1, 0.2),  // below threshold
	}

	dets := decodeCandidates(rows, 640, 480, 0.5, testClasses)

	if len(dets) != 2 {
		t.Fatalf("decoded %d candidates, want 2", len(dets))
	}
	if dets[0].ClassName != "car" || dets[1].ClassName != "person" {
		t.Errorf("classes = %s, %s; want car, person", dets[0].ClassName, dets[1].ClassName)
	}
}

func TestDecodeCandidates_CenterToTopLeftInSourceSpace(t *testing.T) {
	// Center (0.5, 0.5), size (0.5, 0.5) on a 640x480 image:
	// width 320, height 240, top-left at (160, 120).
	rows := [][]float32{row(0.5, 0.5, 0.5, 0.5, 0.9)}

	dets := decodeCandidates(rows, 640, 480, 0.5, []string{"person"})

	if len(dets) != 1 {
		t.Fatalf("decoded %d candidates, want 1", len(dets))
	}
	box := dets[0].Box
	if box.Min.X != 160 || box.Min.Y != 120 || box.Dx() != 320 || box.Dy() != 240 {
		t.Errorf("box = %v, want (160,120) 320x240", box)
	}
}

func TestDecodeCandidates_BoxesClampedToImage(t *testing.T) {
	// Box centered near the corner spills outside the image.
	rows := [][]float32{row(0.02, 0.02, 0.2, 0.2, 0.9)}

	dets := decodeCandidates(rows, 100, 100, 0.5, []string{"person"})

	if len(dets) != 1 {
		t.Fatalf("decoded %d candidates, want 1", len(dets))
	}
	box := dets[0].Box
	if box.Min.X < 0 || box.Min.Y < 0 {
		t.Errorf("box origin = (%d,%d), want non-negative", box.Min.X, box.Min.Y)
	}
	if box.Max.X > 100 || box.Max.Y > 100 {
		t.Errorf("box max = (%d,%d), want within 100x100", box.Max.X, box.Max.Y)
	}
}

func TestDecodeCandidates_ThresholdMonotonicity(t *testing.T) {
	rows := [][]float32{
		row(0.1, 0.1, 0.05, 0.05, 0.35),
		row(0.3, 0.1, 0.05, 0.05, 0.55),
		row(0.5, 0.1, 0.05, 0.05, 0.75),
		row(0.7, 0.1, 0.05, 0.05, 0.95),
	}

	prev := len(rows) + 1
	for _, threshold := range []float64{0.3, 0.5, 0.7, 0.9} {
		n := len(decodeCandidates(rows, 640, 480, threshold, []string{"person"}))
		if n > prev {
			t.Errorf("count rose from %d to %d as threshold increased to %v", prev, n, threshold)
		}
		prev = n
	}
}

func TestDecodeCandidates_UnknownClassID(t *testing.T) {
	rows := [][]float32{row(0.5, 0.5, 0.1, 0.1, 0.1, 0.9)}

	dets := decodeCandidates(rows, 100, 100, 0.5, []string{"person"})

	if len(dets) != 1 {
		t.Fatalf("decoded %d candidates, want 1", len(dets))
	}
	if dets[0].ClassName != "class_1" {
		t.Errorf("class name = %q, want class_1 placeholder", dets[0].ClassName)
	}
}

func TestNewYoloDetector_MissingWeights(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"yolov3.cfg", "coco.names"} {
		if err := writeStub(filepath.Join(root, name)); err != nil {
			t.Fatal(err)
		}
	}

	desc := model.NewRegistry(root).Resolve(model.YoloObject)
	_, err := New(model.YoloObject, desc)

	appErr, ok := err.(*apperrors.AppError)
	if !ok || appErr.Type != apperrors.ErrorTypeModelUnavailable {
		t.Fatalf("error = %v, want model_unavailable", err)
	}
	if len(appErr.MissingRoles) != 1 || appErr.MissingRoles[0] != model.RoleWeights {
		t.Errorf("MissingRoles = %v, want [weights]", appErr.MissingRoles)
	}
	if appErr.ExpectedPaths[model.RoleWeights] == "" {
		t.Error("ExpectedPaths does not name the weights location")
	}
}

func TestReadClassNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coco.names")
	if err := writeStubContent(path, "person\nbicycle\n\ncar\n"); err != nil {
		t.Fatal(err)
	}

	names, err := readClassNames(path)
	if err != nil {
		t.Fatalf("readClassNames() error: %v", err)
	}
	want := []string{"person", "bicycle", "car"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
