package detect

import (
	"image"
	"math"
	"testing"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Rectangle
		want float64
	}{
		{"identical", image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10), 1.0},
		{"disjoint", image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30), 0.0},
		{"touching edges", image.Rect(0, 0, 10, 10), image.Rect(10, 0, 20, 10), 0.0},
		{"half overlap", image.Rect(0, 0, 10, 10), image.Rect(5, 0, 15, 10), 50.0 / 150.0},
		{"contained", image.Rect(0, 0, 10, 10), image.Rect(2, 2, 7, 7), 25.0 / 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IoU(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IoU = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuppressOverlapping_KeepsHighestConfidence(t *testing.T) {
	candidates := []Detection{
		{ClassName: "person", Confidence: 0.6, Box: image.Rect(2, 2, 52, 52)},
		{ClassName: "person", Confidence: 0.9, Box: image.Rect(0, 0, 50, 50)},
	}

	kept := SuppressOverlapping(candidates, 0.4)

	if len(kept) != 1 {
		t.Fatalf("kept %d detections, want 1", len(kept))
	}
	if kept[0].Confidence != 0.9 {
		t.Errorf("kept confidence = %v, want 0.9 (highest)", kept[0].Confidence)
	}
}

func TestSuppressOverlapping_DifferentClassesNeverSuppress(t *testing.T) {
	candidates := []Detection{
		{ClassName: "person", Confidence: 0.9, Box: image.Rect(0, 0, 50, 50)},
		{ClassName: "dog", Confidence: 0.6, Box: image.Rect(0, 0, 50, 50)},
	}

	kept := SuppressOverlapping(candidates, 0.4)

	if len(kept) != 2 {
		t.Fatalf("kept %d detections, want 2 (class boundary)", len(kept))
	}
}

func TestSuppressOverlapping_LowOverlapKept(t *testing.T) {
	candidates := []Detection{
		{ClassName: "person", Confidence: 0.9, Box: image.Rect(0, 0, 50, 50)},
		{ClassName: "person", Confidence: 0.8, Box: image.Rect(45, 45, 95, 95)},
	}

	kept := SuppressOverlapping(candidates, 0.4)

	if len(kept) != 2 {
		t.Fatalf("kept %d detections, want 2 (IoU below threshold)", len(kept))
	}
}

func TestSuppressOverlapping_NoSameClassPairAboveThreshold(t *testing.T) {
	// A cluster of overlapping candidates; the survivors must be pairwise
	// below the overlap threshold within each class.
	candidates := []Detection{
		{ClassName: "car", Confidence: 0.95, Box: image.Rect(0, 0, 100, 100)},
		{ClassName: "car", Confidence: 0.90, Box: image.Rect(10, 10, 110, 110)},
		{ClassName: "car", Confidence: 0.85, Box: image.Rect(5, 5, 105, 105)},
		{ClassName: "car", Confidence: 0.80, Box: image.Rect(200, 200, 300, 300)},
		{ClassName: "bus", Confidence: 0.70, Box: image.Rect(0, 0, 100, 100)},
	}

	threshold := 0.4
	kept := SuppressOverlapping(candidates, threshold)

	for i := range kept {
		for j := i + 1; j < len(kept); j++ {
			if kept[i].ClassName != kept[j].ClassName {
				continue
			}
			if iou := IoU(kept[i].Box, kept[j].Box); iou > threshold {
				t.Errorf("kept same-class pair with IoU %v > %v", iou, threshold)
			}
		}
	}
}

func TestSuppressOverlapping_Empty(t *testing.T) {
	if kept := SuppressOverlapping(nil, 0.4); kept != nil {
		t.Errorf("SuppressOverlapping(nil) = %v, want nil", kept)
	}
}
