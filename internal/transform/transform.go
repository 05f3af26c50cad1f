// Package transform holds the stateless single-call image operations the
// tool facade composes. Each function leaves its input untouched and returns
// a buffer the caller owns.
package transform

import (
	"fmt"
	"image"
	"image/color"

	apperrors "go-vision-tools/internal/errors"

	"gocv.io/x/gocv"
)

// Resize scales to explicit dimensions, or by a uniform factor when width
// and height are zero.
func Resize(src gocv.Mat, width, height int, scale float64) gocv.Mat {
	dst := gocv.NewMat()
	if width > 0 && height > 0 {
		gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	} else {
		gocv.Resize(src, &dst, image.Pt(0, 0), scale, scale, gocv.InterpolationLinear)
	}
	return dst
}

// Crop extracts a rectangular region
func Crop(src gocv.Mat, x, y, width, height int) (gocv.Mat, error) {
	roi := image.Rect(x, y, x+width, y+height)
	if !roi.In(image.Rect(0, 0, src.Cols(), src.Rows())) {
		return gocv.NewMat(), apperrors.NewInvalidParameterError("roi",
			fmt.Sprintf("crop region %v exceeds image bounds %dx%d", roi, src.Cols(), src.Rows()))
	}
	region := src.Region(roi)
	defer region.Close()
	return region.Clone(), nil
}

// Flip mirrors the image: 0 vertical, 1 horizontal, -1 both
func Flip(src gocv.Mat, flipCode int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Flip(src, &dst, flipCode)
	return dst
}

// Rotate turns the image by angle degrees around its center
func Rotate(src gocv.Mat, angle float64) gocv.Mat {
	center := image.Pt(src.Cols()/2, src.Rows()/2)
	matrix := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer matrix.Close()

	dst := gocv.NewMat()
	gocv.WarpAffine(src, &dst, matrix, image.Pt(src.Cols(), src.Rows()))
	return dst
}

var colorConversions = map[string]gocv.ColorConversionCode{
	"gray": gocv.ColorBGRToGray,
	"hsv":  gocv.ColorBGRToHSV,
	"rgb":  gocv.ColorBGRToRGB,
	"lab":  gocv.ColorBGRToLab,
	"yuv":  gocv.ColorBGRToYUV,
}

// ConvertColor converts to a named target color space
func ConvertColor(src gocv.Mat, target string) (gocv.Mat, error) {
	code, ok := colorConversions[target]
	if !ok {
		return gocv.NewMat(), apperrors.NewInvalidParameterError("target_space",
			fmt.Sprintf("unknown color space %q", target))
	}
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, code)
	return dst, nil
}

// Edges runs Canny edge detection over a grayscale conversion
func Edges(src gocv.Mat, thresholdLow, thresholdHigh float64) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, float32(thresholdLow), float32(thresholdHigh))
	return edges
}

// Contours finds external contours and returns them drawn over a copy of the
// source together with the contour count.
func Contours(src gocv.Mat) (gocv.Mat, int) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(gray, &thresh, 127, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	annotated := src.Clone()
	gocv.DrawContours(&annotated, contours, -1, color.RGBA{G: 255, A: 255}, 2)
	return annotated, contours.Size()
}

// Features marks strong corners on a copy of the source and returns their
// pixel locations.
func Features(src gocv.Mat, maxFeatures int) (gocv.Mat, []image.Point) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	corners := gocv.NewMat()
	defer corners.Close()
	gocv.GoodFeaturesToTrack(gray, &corners, maxFeatures, 0.01, 10)

	annotated := src.Clone()
	points := make([]image.Point, 0, corners.Rows())
	for i := 0; i < corners.Rows(); i++ {
		vec := corners.GetVecfAt(i, 0)
		if len(vec) < 2 {
			continue
		}
		pt := image.Pt(int(vec[0]), int(vec[1]))
		points = append(points, pt)
		gocv.Circle(&annotated, pt, 4, color.RGBA{R: 255, A: 255}, 2)
	}
	return annotated, points
}
