package detector

import (
	"reel/internal/vision"

	"gocv.io/x/gocv"
)

type ColorDetectParam struct {
	Img   gocv.Mat // HSV 图像
	Range vision.ColorRange
}

type ColorDetector interface {
	Detect(param ColorDetectParam) ([]vision.Blob, bool)
}

type ColorDetectorImpl struct{}

func NewColorDetector() ColorDetector {
	return &ColorDetectorImpl{}
}

func NewColorDetectParam(hsv gocv.Mat, colorRange vision.ColorRange) ColorDetectParam {
	return ColorDetectParam{
		Img:   hsv,
		Range: colorRange,
	}
}

// ToHSV 调用方负责关闭返回的 Mat
func ToHSV(bgr gocv.Mat) gocv.Mat {
	hsv := gocv.NewMat()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)
	return hsv
}

// Detect 只提取最外层轮廓，内部嵌套的轮廓不单独计数；面积不超过噪声下限的轮廓被丢弃
func (d *ColorDetectorImpl) Detect(param ColorDetectParam) ([]vision.Blob, bool) {
	img := param.Img
	cr := param.Range
	if img.Empty() || !cr.Valid() {
		return nil, false
	}

	mask := gocv.NewMat()
	defer mask.Close()

	lower := gocv.NewScalar(float64(cr.Lower.H), float64(cr.Lower.S), float64(cr.Lower.V), 0) // HSV下限
	upper := gocv.NewScalar(float64(cr.Upper.H), float64(cr.Upper.S), float64(cr.Upper.V), 0) // HSV上限
	gocv.InRangeWithScalar(img, lower, upper, &mask)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return nil, false
	}

	var blobs []vision.Blob
	for i := range contours.Size() {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if !vision.AboveNoiseFloor(area) {
			continue
		}
		blobs = append(blobs, vision.Blob{Box: gocv.BoundingRect(contour), Area: area})
	}
	return blobs, len(blobs) > 0
}
